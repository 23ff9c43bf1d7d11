package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	StageIntrospect = "introspect"
	StageExtract    = "extract"
	StageCompose    = "compose"
	StageComplete   = "complete"
	StageArchive    = "archive"
)

var (
	stageDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "datagen_stage_duration_seconds",
			Help:    "Pipeline stage latency in seconds.",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"stage"},
	)
	catalogSchemas = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "datagen_catalog_schemas",
			Help: "Number of schemas in the last introspected catalog.",
		},
	)
	catalogRelations = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "datagen_catalog_relations",
			Help: "Number of tables and views in the last introspected catalog.",
		},
	)
	catalogColumns = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "datagen_catalog_columns",
			Help: "Number of columns in the last introspected catalog.",
		},
	)
	extractedTables = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "datagen_extracted_tables",
			Help: "Number of tables left after deny-list filtering.",
		},
	)
	completionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datagen_completions_total",
			Help: "Total number of chat completion calls by outcome.",
		},
		[]string{"outcome"},
	)
	questionsGeneratedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "datagen_questions_generated_total",
			Help: "Total number of question lines returned by the model.",
		},
	)
	lastRunTimestamp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "datagen_last_run_timestamp_seconds",
			Help: "Unix time of the last finished run.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		stageDurationSeconds,
		catalogSchemas,
		catalogRelations,
		catalogColumns,
		extractedTables,
		completionsTotal,
		questionsGeneratedTotal,
		lastRunTimestamp,
	)
}

func ObserveStage(stage string, elapsed time.Duration) {
	stageDurationSeconds.WithLabelValues(stage).Observe(elapsed.Seconds())
}

func SetCatalogMetrics(schemas, relations, columns int) {
	catalogSchemas.Set(float64(schemas))
	catalogRelations.Set(float64(relations))
	catalogColumns.Set(float64(columns))
}

func SetExtractedTables(count int) {
	extractedTables.Set(float64(count))
}

func ObserveCompletion(err error, questions int) {
	if err != nil {
		completionsTotal.WithLabelValues("error").Inc()
		return
	}
	completionsTotal.WithLabelValues("ok").Inc()
	if questions > 0 {
		questionsGeneratedTotal.Add(float64(questions))
	}
}

func MarkRunFinished(at time.Time) {
	lastRunTimestamp.Set(float64(at.Unix()))
}

// WriteTextfile dumps the default registry in the node_exporter textfile
// format. The file is replaced atomically.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
