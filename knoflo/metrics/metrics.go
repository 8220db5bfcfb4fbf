package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	StreamsStarted   prometheus.Counter
	StreamsCompleted prometheus.Counter
	StreamsFailed    prometheus.Counter
	DroppedChunks    prometheus.Counter
	PersistFailures  prometheus.Counter
	TranscribeJobs   prometheus.Counter
}

var (
	once   sync.Once
	global *Metrics
)

func Global() *Metrics {
	once.Do(func() {
		global = &Metrics{
			StreamsStarted: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "knoflo",
				Name:      "chat_streams_started_total",
				Help:      "Total chat streams opened against the model backend",
			}),
			StreamsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "knoflo",
				Name:      "chat_streams_completed_total",
				Help:      "Total chat streams that ended with a done event",
			}),
			StreamsFailed: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "knoflo",
				Name:      "chat_streams_failed_total",
				Help:      "Total chat streams that ended with an error event",
			}),
			DroppedChunks: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "knoflo",
				Name:      "chat_dropped_chunks_total",
				Help:      "Malformed model backend chunks skipped by the relay",
			}),
			PersistFailures: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "knoflo",
				Name:      "chat_persist_failures_total",
				Help:      "Session or message writes that failed during a stream",
			}),
			TranscribeJobs: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "knoflo",
				Name:      "transcribe_jobs_total",
				Help:      "Total audio transcription requests processed",
			}),
		}
		prometheus.MustRegister(
			global.StreamsStarted,
			global.StreamsCompleted,
			global.StreamsFailed,
			global.DroppedChunks,
			global.PersistFailures,
			global.TranscribeJobs,
		)
	})
	return global
}
