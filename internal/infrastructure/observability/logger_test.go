package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLoggerWithOutputJSON(t *testing.T) {
	var buf bytes.Buffer
	InitLoggerWithOutput("articleforge", "production", "debug", &buf)

	log.Info().Str("slug", "antique-lamps").Msg("stage completed")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "articleforge", entry["service"])
	assert.Equal(t, "antique-lamps", entry["slug"])
	assert.Equal(t, "stage completed", entry["message"])
}

func TestLoggerFromContextWithoutSpan(t *testing.T) {
	var buf bytes.Buffer
	InitLoggerWithOutput("articleforge", "production", "info", &buf)

	LoggerFromContext(context.Background()).Info().Msg("hello")

	assert.NotContains(t, buf.String(), "trace_id")
}

func TestSetupWithoutExporterIsNoop(t *testing.T) {
	shutdown, err := Setup(context.Background(), SetupOptions{Exporter: ExporterNone})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestNilMetricsRecordNothing(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordProviderCall(context.Background(), nil, "keyword_metrics", "ok", 0)
		RecordStage(context.Background(), nil, "research", "completed", 0)
		RecordCacheHit(context.Background(), nil, "research")
	})
}

func TestInitMetrics(t *testing.T) {
	m, err := InitMetrics()
	require.NoError(t, err)
	assert.NotPanics(t, func() {
		RecordProviderCall(context.Background(), m, "serp_results", "timeout", 0)
	})
}
