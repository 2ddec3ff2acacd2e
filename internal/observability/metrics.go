package observability

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Runtime counters shared across the session and persistence layers.
var (
	ViewsCounted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pyform_views_total",
		Help: "Form views counted after the once-per-session guard.",
	}, []string{"form_id"})

	NavigationsBlocked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pyform_navigations_blocked_total",
		Help: "Forward navigations rejected by the validation gate.",
	})

	SubmissionsAccepted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pyform_submissions_total",
		Help: "Submissions durably stored, by form.",
	}, []string{"form_id"})

	AutosaveAttempts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pyform_autosave_attempts_total",
		Help: "Debounced module-list saves attempted by the editor bridge.",
	})

	AutosaveFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pyform_autosave_failures_total",
		Help: "Module-list saves that failed and were left for the next cycle.",
	})
)

// NewOpsEngine builds the operational endpoint engine serving metrics and health.
func NewOpsEngine() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return engine
}
