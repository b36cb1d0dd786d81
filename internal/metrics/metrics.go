package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)

	UploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uploads_total",
			Help: "Datasets uploaded and stored",
		},
		[]string{"ext"},
	)

	TrainingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trainings_total",
			Help: "Model training attempts by result",
		},
		[]string{"result"}, // ok|invalid|error
	)

	TrainingSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "training_duration_seconds",
			Help:    "Time spent fitting a model",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
	)

	PredictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "predictions_total",
			Help: "Predictions served by performance tier",
		},
		[]string{"tier"},
	)

	initOnce sync.Once
)

var Handler = promhttp.Handler

// Init registers the collectors. queueDepth reports the training queue length.
func Init(queueDepth func() int) {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestsTotal, UploadsTotal, TrainingsTotal, TrainingSeconds, PredictionsTotal)
		if queueDepth != nil {
			prometheus.MustRegister(prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: "worker_queue_depth",
					Help: "Current worker queue depth",
				},
				func() float64 { return float64(queueDepth()) },
			))
		}
	})
}
