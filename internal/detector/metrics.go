package detector

import "github.com/prometheus/client_golang/prometheus"

var (
	inferencesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "inspector",
			Subsystem: "detect",
			Name:      "inferences_total",
			Help:      "Total number of inference calls by outcome",
		},
		[]string{"outcome"},
	)

	inferenceDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "inspector",
			Subsystem: "detect",
			Name:      "inference_duration_seconds",
			Help:      "Time spent in the detection backend",
			Buckets:   prometheus.DefBuckets,
		},
	)

	detectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "inspector",
			Subsystem: "detect",
			Name:      "detections_total",
			Help:      "Total number of detected objects by class",
		},
		[]string{"class"},
	)
)

func init() {
	prometheus.MustRegister(inferencesTotal, inferenceDuration, detectionsTotal)
}
