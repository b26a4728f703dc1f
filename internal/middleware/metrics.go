package middleware

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RedisErrors counts Redis command failures by command name.
var RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "blog_redis_errors_total",
	Help: "Total number of Redis command errors",
}, []string{"command"})

// CleanupSwept counts image rows handled by the cleanup job per sweep type.
var CleanupSwept = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "blog_image_cleanup_total",
	Help: "Total number of image rows processed by the cleanup job",
}, []string{"sweep"})

// CleanupErrors counts per-item errors from the cleanup job per sweep type.
var CleanupErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "blog_image_cleanup_errors_total",
	Help: "Total number of per-item errors from the cleanup job",
}, []string{"sweep"})

// InitMetrics creates the Prometheus middleware for the given service name.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	return fiberprometheus.New(serviceName)
}

// MetricsMiddleware returns the handler recording per-request metrics.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	return prom.Middleware
}
