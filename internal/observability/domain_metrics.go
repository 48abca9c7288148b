package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	pipelineRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "supportql_pipeline_requests_total",
			Help: "Total number of pipeline runs by detected intent.",
		},
		[]string{"intent"},
	)
	pipelineStageSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "supportql_pipeline_stage_duration_seconds",
			Help:    "Pipeline stage latency.",
			Buckets: []float64{0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"stage"},
	)
	unsafeSQLTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "supportql_unsafe_sql_total",
			Help: "Total number of generated statements rejected by the safety gate.",
		},
	)
	executionFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "supportql_sql_execution_failures_total",
			Help: "Total number of datastore execution errors converted to fallback answers.",
		},
	)
	fallbackAnswersTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "supportql_fallback_answers_total",
			Help: "Total number of apology fallback answers (empty or failed results).",
		},
	)
	llmRequestSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "supportql_llm_request_duration_seconds",
			Help:    "Text-generation call latency by purpose.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"purpose"},
	)
	archivedMessagesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "supportql_archived_messages_total",
			Help: "Total number of conversation records exported to the transcript archive.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		pipelineRequestsTotal,
		pipelineStageSeconds,
		unsafeSQLTotal,
		executionFailuresTotal,
		fallbackAnswersTotal,
		llmRequestSeconds,
		archivedMessagesTotal,
	)
}

func ObservePipelineRun(intent string) {
	if intent == "" {
		intent = "unknown"
	}
	pipelineRequestsTotal.WithLabelValues(intent).Inc()
}

func ObservePipelineStage(stage string, elapsed time.Duration) {
	pipelineStageSeconds.WithLabelValues(stage).Observe(elapsed.Seconds())
}

func IncrementUnsafeSQL() {
	unsafeSQLTotal.Inc()
}

func IncrementExecutionFailure() {
	executionFailuresTotal.Inc()
}

func IncrementFallbackAnswer() {
	fallbackAnswersTotal.Inc()
}

func ObserveLLMRequest(purpose string, elapsed time.Duration) {
	llmRequestSeconds.WithLabelValues(purpose).Observe(elapsed.Seconds())
}

func AddArchivedMessages(count int) {
	if count > 0 {
		archivedMessagesTotal.Add(float64(count))
	}
}
