package core

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Address         string
		Host            string
		DebugHost       string
		ShutdownTimeout time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	RedisConfig struct {
		Address  string
		Password string
		DB       int
		LockTTL  time.Duration
	}

	UploadsConfig struct {
		Dir          string
		MaxImageSide int
	}

	CleanupConfig struct {
		Spec      string
		Retention time.Duration
	}

	Config struct {
		Env                string
		Debug              bool
		TestMode           bool
		AppName            string
		Build              string
		SecretKey          string
		JWTExpirationDelta time.Duration
		RollbarToken       string
		InMemStorage       bool
		Server             ServerConfig
		Database           DatabaseConfig
		Redis              RedisConfig
		Uploads            UploadsConfig
		Cleanup            CleanupConfig
	}
)

func (c DatabaseConfig) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// NewConfig loads the config from defaults, `config/.env.<env>` and the environment, in that order.
func NewConfig() *Config {
	vpr := viper.New()

	// defaults
	vpr.SetTypeByDefaultValue(true)
	vpr.SetDefault("debug", true)
	vpr.SetDefault("appName", "Darasa")
	vpr.SetDefault("build", "develop")
	vpr.SetDefault("secretKey", "tq3-z9m)ebn$+57=fw&uoxh2(h!x)#*c2(#yg4h^$cegm2kkd")
	vpr.SetDefault("jwtExpirationDelta", 7*24*time.Hour)
	vpr.SetDefault("rollbarToken", "")
	vpr.SetDefault("storage.inmem", false)

	vpr.SetDefault("server.address", ":5000")
	vpr.SetDefault("server.host", "localhost")
	vpr.SetDefault("server.debugHost", ":4000")
	vpr.SetDefault("server.shutdownTimeout", 5*time.Second)

	vpr.SetDefault("database.engine", "postgres")
	vpr.SetDefault("database.host", "localhost")
	vpr.SetDefault("database.port", "5432")
	vpr.SetDefault("database.name", "darasa")
	vpr.SetDefault("database.user", "darasa")
	vpr.SetDefault("database.password", "darasa")
	vpr.SetDefault("database.adminUser", "postgres")
	vpr.SetDefault("database.adminPassword", "")
	vpr.SetDefault("database.disableTLS", true)

	vpr.SetDefault("redis.address", "")
	vpr.SetDefault("redis.password", "")
	vpr.SetDefault("redis.db", 0)
	vpr.SetDefault("redis.lockTTL", 10*time.Second)

	vpr.SetDefault("uploads.dir", "uploads")
	vpr.SetDefault("uploads.maxImageSide", 1024)

	vpr.SetDefault("cleanup.spec", "0 0 * * *")
	vpr.SetDefault("cleanup.retention", 30*24*time.Hour)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}
	vpr.SetEnvPrefix(env)
	vpr.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	vpr.AutomaticEnv()

	return &Config{
		Env:                env,
		Debug:              vpr.GetBool("debug"),
		TestMode:           env == "TEST",
		AppName:            vpr.GetString("appName"),
		Build:              vpr.GetString("build"),
		SecretKey:          vpr.GetString("secretKey"),
		JWTExpirationDelta: vpr.GetDuration("jwtExpirationDelta"),
		RollbarToken:       vpr.GetString("rollbarToken"),
		InMemStorage:       vpr.GetBool("storage.inmem"),
		Server: ServerConfig{
			Address:         vpr.GetString("server.address"),
			Host:            vpr.GetString("server.host"),
			DebugHost:       vpr.GetString("server.debugHost"),
			ShutdownTimeout: vpr.GetDuration("server.shutdownTimeout"),
		},
		Database: DatabaseConfig{
			Engine:        vpr.GetString("database.engine"),
			Host:          vpr.GetString("database.host"),
			Port:          vpr.GetString("database.port"),
			Name:          vpr.GetString("database.name"),
			User:          vpr.GetString("database.user"),
			Password:      vpr.GetString("database.password"),
			AdminUser:     vpr.GetString("database.adminUser"),
			AdminPassword: vpr.GetString("database.adminPassword"),
			DisableTLS:    vpr.GetBool("database.disableTLS"),
		},
		Redis: RedisConfig{
			Address:  vpr.GetString("redis.address"),
			Password: vpr.GetString("redis.password"),
			DB:       vpr.GetInt("redis.db"),
			LockTTL:  vpr.GetDuration("redis.lockTTL"),
		},
		Uploads: UploadsConfig{
			Dir:          vpr.GetString("uploads.dir"),
			MaxImageSide: vpr.GetInt("uploads.maxImageSide"),
		},
		Cleanup: CleanupConfig{
			Spec:      vpr.GetString("cleanup.spec"),
			Retention: vpr.GetDuration("cleanup.retention"),
		},
	}
}

// NewTestConfig returns a Config suitable for tests, without touching the environment.
func NewTestConfig() *Config {
	return &Config{
		Env:                "TEST",
		TestMode:           true,
		AppName:            "Darasa",
		Build:              "test",
		SecretKey:          "test-secret",
		JWTExpirationDelta: time.Hour,
		InMemStorage:       true,
		Server:             ServerConfig{ShutdownTimeout: time.Second},
		Redis:              RedisConfig{LockTTL: 5 * time.Second},
		Uploads:            UploadsConfig{Dir: "uploads", MaxImageSide: 1024},
		Cleanup:            CleanupConfig{Spec: "0 0 * * *", Retention: 30 * 24 * time.Hour},
	}
}
