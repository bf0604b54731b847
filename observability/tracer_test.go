package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"go.opentelemetry.io/otel"

	"github.com/cataloghq/idkit/logger"
)

func TestTracerConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     TracerConfig
		wantErr bool
	}{
		{"valid", TracerConfig{Endpoint: "localhost:4318"}, false},
		{"missing endpoint", TracerConfig{}, true},
		{"sample rate too high", TracerConfig{Endpoint: "localhost:4318", SampleRate: 1.5}, true},
		{"sample rate negative", TracerConfig{Endpoint: "localhost:4318", SampleRate: -0.1}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.cfg.ApplyDefaults()
			if err := tc.cfg.Validate(); (err != nil) != tc.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestTracerConfigDefaults(t *testing.T) {
	var cfg TracerConfig
	cfg.ApplyDefaults()
	if cfg.SampleRate != 1 {
		t.Errorf("expected sample rate 1, got %v", cfg.SampleRate)
	}
	if cfg.Environment != "development" {
		t.Errorf("expected development environment, got %q", cfg.Environment)
	}
}

func TestInitTracerExportsSpans(t *testing.T) {
	var received atomic.Int32
	collector := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/traces" {
			received.Add(1)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer collector.Close()

	ctx := context.Background()
	tp, err := InitTracer(ctx, "idkit-test", "test", TracerConfig{
		Endpoint: strings.TrimPrefix(collector.URL, "http://"),
		Insecure: true,
	}, logger.NewDefault("test"))
	if err != nil {
		t.Fatal(err)
	}

	_, span := otel.Tracer("test").Start(ctx, "test.operation")
	span.End()

	if err := tp.Shutdown(ctx); err != nil {
		t.Fatal(err)
	}
	if received.Load() == 0 {
		t.Error("expected the collector to receive at least one export")
	}
}
