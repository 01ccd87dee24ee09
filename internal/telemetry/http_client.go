package telemetry

import (
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
)

// HTTPClientConfig holds configuration for an instrumented HTTP client
type HTTPClientConfig struct {
	ServiceName string        // Name of the remote service, used as the span name prefix
	Timeout     time.Duration // Per-attempt timeout
}

// NewInstrumentedHTTPClient returns an http.Client whose requests are traced.
// The Graph transport wraps it, so every retry attempt becomes its own span.
func NewInstrumentedHTTPClient(cfg HTTPClientConfig) *http.Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	opts := []otelhttp.Option{
		otelhttp.WithSpanOptions(trace.WithSpanKind(trace.SpanKindClient)),
	}
	if cfg.ServiceName != "" {
		name := cfg.ServiceName
		opts = append(opts, otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return name + " " + r.Method + " " + r.URL.Path
		}))
	}

	return &http.Client{
		Timeout:   cfg.Timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport, opts...),
	}
}
