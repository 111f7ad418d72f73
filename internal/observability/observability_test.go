package observability

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		format  string
		wantErr bool
	}{
		{"json info", "info", "json", false},
		{"console debug", "DEBUG", "console", false},
		{"default format", "warn", "", false},
		{"bad level", "loud", "json", true},
		{"bad format", "info", "xml", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.level, tt.format)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}

	logger, err := NewLogger("warn", "json")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
}

func TestFromContext(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	ctx := context.WithValue(context.Background(), chimiddleware.RequestIDKey, "req-123")
	FromContext(ctx, base).Info("with id")
	FromContext(context.Background(), base).Info("without id")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "req-123", entries[0].ContextMap()["request_id"])
	assert.NotContains(t, entries[1].ContextMap(), "request_id")
}

func TestPrometheusMetrics(t *testing.T) {
	m := NewPrometheusMetrics()

	m.RecordDecision("stop", "off_label")
	m.RecordDecision("stop", "off_label")
	m.RecordDecision("info", "")
	m.RecordGateway("chat", "blocked")
	m.RecordProviderLatency("meta-llama/llama-3.2-3b-instruct:free", "ok", 1500*time.Millisecond)
	m.RecordCatalogReload("ok")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.decisions.WithLabelValues("stop", "off_label")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.decisions.WithLabelValues("info", "none")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.gateway.WithLabelValues("chat", "blocked")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.catalogReloads.WithLabelValues("ok")))

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "repcopilot_compliance_decisions_total")
	assert.Contains(t, string(body), "repcopilot_provider_request_duration_seconds_bucket")
}

func TestNopMetrics(t *testing.T) {
	var m Metrics = NopMetrics{}
	assert.NotPanics(t, func() {
		m.RecordDecision("stop", "off_label")
		m.RecordGateway("chat", "ok")
		m.RecordProviderLatency("x", "ok", time.Second)
		m.RecordCatalogReload("error")
	})
}
