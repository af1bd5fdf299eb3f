package echoapi

import (
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/auth"
)

const contextTokenKey = "userToken"

var (
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errAuthenticationFailed = echo.NewHTTPError(http.StatusUnauthorized, "invalid email or password")
	errHttpForbidden        = echo.NewHTTPError(http.StatusForbidden, "permission denied")

	nowFunc = time.Now // mockable
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	ID       string    `json:"id"`
	Role     auth.Role `json:"role"`
	SchoolID string    `json:"schoolId"`
	Name     string    `json:"name,omitempty"`
	Email    string    `json:"email,omitempty"`
}

func (c Claims) Principal() auth.Principal {
	return auth.Principal{ID: c.ID, SchoolID: c.SchoolID, Role: c.Role, Name: c.Name, Email: c.Email}
}

// Authenticator issues and checks the API tokens.
type Authenticator struct {
	issuer     string
	signingKey []byte
	expiration time.Duration
}

func NewAuthenticator(conf *core.Config) *Authenticator {
	return &Authenticator{
		issuer:     conf.AppName,
		signingKey: []byte(conf.SecretKey),
		expiration: conf.JWTExpirationDelta,
	}
}

func (a *Authenticator) claims(p auth.Principal) *Claims {
	now := nowFunc()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    a.issuer,
			Subject:   p.ID,
			ExpiresAt: now.Add(a.expiration).Unix(),
			IssuedAt:  now.Unix(),
		},
		ID:       p.ID,
		Role:     p.Role,
		SchoolID: p.SchoolID,
		Name:     p.Name,
		Email:    p.Email,
	}
}

// GenerateToken returns a signed JWT representing `p`.
func (a *Authenticator) GenerateToken(p auth.Principal) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, a.claims(p))
	ss, err := token.SignedString(a.signingKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// Middleware rejects requests without a valid bearer token.
func (a *Authenticator) Middleware() echo.MiddlewareFunc {
	return middleware.JWTWithConfig(middleware.JWTConfig{
		SigningKey:    a.signingKey,
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
	})
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// principal returns who is behind the request. Only valid behind the auth middleware.
func principal(ctx echo.Context) (auth.Principal, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return auth.Principal{}, err
	}
	p := claims.Principal()
	if _, ok := auth.ParseRole(string(p.Role)); !ok || p.ID == "" {
		return auth.Principal{}, errUnauthorized
	}
	return p, nil
}

type (
	LoginRequest struct {
		Email    string `json:"email" form:"email" validate:"required,email"`
		Password string `json:"password" form:"password" validate:"required"`
	}

	LoginUser struct {
		ID       string    `json:"id"`
		SchoolID string    `json:"schoolId"`
		Role     auth.Role `json:"role"`
		Name     string    `json:"name"`
		Email    string    `json:"email"`
		Image    string    `json:"image,omitempty"`
	}

	LoginResponse struct {
		Success bool      `json:"success"`
		Message string    `json:"message"`
		User    LoginUser `json:"user"`
		Token   string    `json:"token"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return validate.Struct(lr)
}

// login answers a successful authentication of `p` with a fresh token.
func (api *baseAPI) login(ctx echo.Context, p auth.Principal, img string) error {
	token, err := api.auth.GenerateToken(p)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	ctx.Response().Header().Set(echo.HeaderAuthorization, token)
	return ctx.JSON(http.StatusOK, LoginResponse{
		Success: true,
		Message: "Success Login.",
		User: LoginUser{
			ID:       p.ID,
			SchoolID: p.SchoolID,
			Role:     p.Role,
			Name:     p.Name,
			Email:    p.Email,
			Image:    img,
		},
		Token: token,
	})
}

// trapLoginErr hides whether the email or the password was wrong.
func trapLoginErr(err error) error {
	switch errors.Cause(err).(type) {
	case *core.NotFoundError, *core.UnauthorizedError:
		return errAuthenticationFailed
	}
	return errors.Wrap(err, "authenticating")
}
