// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Image outcome labels for ImagesTotal.
const (
	ImageMain    = "main"
	ImageGallery = "gallery"
	ImageSkipped = "skipped"
)

var (
	JobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopsnap_jobs_total",
			Help: "Scrape jobs by terminal status.",
		},
		[]string{"status"},
	)

	JobDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "shopsnap_job_duration_seconds",
			Help:    "Wall time from job start to terminal state.",
			Buckets: []float64{1, 5, 10, 15, 30, 60, 120, 300},
		},
	)

	ImagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopsnap_images_total",
			Help: "Image candidates by outcome.",
		},
		[]string{"class"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopsnap_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
)

// ObserveImages records the outcome of one job's image processing.
// candidates is the number of URLs offered to the processor.
func ObserveImages(candidates, main, gallery int) {
	ImagesTotal.WithLabelValues(ImageMain).Add(float64(main))
	ImagesTotal.WithLabelValues(ImageGallery).Add(float64(gallery))
	if skipped := candidates - main - gallery; skipped > 0 {
		ImagesTotal.WithLabelValues(ImageSkipped).Add(float64(skipped))
	}
}
