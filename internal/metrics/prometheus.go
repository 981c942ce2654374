package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "interviewiq_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"stage"},
	)

	StageTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interviewiq_stage_total",
			Help: "Total pipeline stage executions",
		},
		[]string{"stage", "status"},
	)

	PipelineExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interviewiq_pipeline_executions_total",
			Help: "Total full pipeline runs",
		},
		[]string{"status"},
	)

	GenerationFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interviewiq_generation_fallbacks_total",
			Help: "Generation operations that degraded to a fallback artifact",
		},
		[]string{"operation"},
	)

	ScrapeSource = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interviewiq_scrape_source_total",
			Help: "Scrape runs by data source",
		},
		[]string{"source"},
	)

	PagesScraped = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "interviewiq_pages_scraped",
			Help:    "Successfully scraped pages per run",
			Buckets: []float64{0, 1, 2, 3, 5},
		},
	)

	DocumentsParsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interviewiq_documents_parsed_total",
			Help: "Total document extractions",
		},
		[]string{"method"},
	)

	AnalysisChunks = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "interviewiq_analysis_chunks",
			Help:    "Chunks per analysis run",
			Buckets: []float64{1, 2, 5, 10, 20, 50},
		},
	)

	SessionsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "interviewiq_sessions_created_total",
			Help: "Total sessions created",
		},
	)

	FeedbackSubmitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "interviewiq_feedback_submitted_total",
			Help: "Total feedback submissions",
		},
	)
)

func Init() {
	prometheus.MustRegister(StageDuration)
	prometheus.MustRegister(StageTotal)
	prometheus.MustRegister(PipelineExecutions)
	prometheus.MustRegister(GenerationFallbacks)
	prometheus.MustRegister(ScrapeSource)
	prometheus.MustRegister(PagesScraped)
	prometheus.MustRegister(DocumentsParsed)
	prometheus.MustRegister(AnalysisChunks)
	prometheus.MustRegister(SessionsCreated)
	prometheus.MustRegister(FeedbackSubmitted)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
