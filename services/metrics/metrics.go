package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trezcool/darasa/core"
)

const namespace = "darasa"

// Prometheus records domain events and request durations on its own registry.
type Prometheus struct {
	registry           *prometheus.Registry
	schedulesCompleted prometheus.Counter
	schedulesPurged    prometheus.Counter
	scheduleConflicts  prometheus.Counter
	attendanceRecords  prometheus.Counter
	requestDuration    *prometheus.HistogramVec
}

var _ core.Metrics = (*Prometheus)(nil)

func NewPrometheus() *Prometheus {
	m := &Prometheus{
		registry: prometheus.NewRegistry(),
		schedulesCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schedules_completed_total",
			Help:      "Active schedules moved to completed by the cleanup job.",
		}),
		schedulesPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schedules_purged_total",
			Help:      "Completed schedules deleted after the retention period.",
		}),
		scheduleConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schedule_conflicts_total",
			Help:      "Bookings rejected because the teacher was already booked.",
		}),
		attendanceRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attendance_records_total",
			Help:      "Attendance records written.",
		}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latencies.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	m.registry.MustRegister(
		m.schedulesCompleted,
		m.schedulesPurged,
		m.scheduleConflicts,
		m.attendanceRecords,
		m.requestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Prometheus) ScheduleConflict() {
	m.scheduleConflicts.Inc()
}

func (m *Prometheus) SchedulesCleaned(completed, purged int64) {
	m.schedulesCompleted.Add(float64(completed))
	m.schedulesPurged.Add(float64(purged))
}

func (m *Prometheus) AttendanceMarked(n int) {
	m.attendanceRecords.Add(float64(n))
}

// Handler exposes the registry in the prometheus text format.
func (m *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware observes the duration of every request, labelled by route pattern.
func (m *Prometheus) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				} else if status < http.StatusBadRequest {
					status = http.StatusInternalServerError
				}
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			m.requestDuration.
				WithLabelValues(c.Request().Method, route, strconv.Itoa(status)).
				Observe(time.Since(start).Seconds())
			return err
		}
	}
}
