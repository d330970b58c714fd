package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Render paths.
const (
	PathSelfService = "self_service"
	PathPreview     = "preview"
	PathBulk        = "bulk"
)

var (
	CertificatesRendered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "certgen_certificates_rendered_total",
		Help: "Certificates rendered, by path.",
	}, []string{"path"})

	RenderSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "certgen_render_seconds",
		Help:    "Time to render one certificate image.",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 10),
	}, []string{"path"})

	SubmissionsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "certgen_self_service_rejected_total",
		Help: "Self-service submissions rejected for missing fields.",
	})

	StaleLinkSubmissions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "certgen_stale_link_submissions_total",
		Help: "Self-service submissions from a link made for an older template.",
	})

	RenderTimeouts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "certgen_render_timeouts_total",
		Help: "Requests that gave up waiting for a render, by path.",
	}, []string{"path"})

	LoginFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "certgen_admin_login_failures_total",
		Help: "Rejected admin logins.",
	})

	BulkJobsRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "certgen_bulk_jobs_running",
		Help: "Bulk jobs currently rendering.",
	})
)

// ObserveRender counts one render on path that started at start.
func ObserveRender(path string, start time.Time) {
	CertificatesRendered.WithLabelValues(path).Inc()
	RenderSeconds.WithLabelValues(path).Observe(time.Since(start).Seconds())
}
