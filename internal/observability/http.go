package observability

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

type instrumentedTransport struct {
	base   http.RoundTripper
	logger *slog.Logger
}

// InstrumentTransport wraps base so every outbound request is logged and
// counted. A nil base uses http.DefaultTransport.
func InstrumentTransport(base http.RoundTripper, logger *slog.Logger) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &instrumentedTransport{base: base, logger: logger}
}

func (t *instrumentedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	elapsed := time.Since(start)

	status := "error"
	if err == nil {
		status = strconv.Itoa(resp.StatusCode)
	}
	httpClientRequestsTotal.WithLabelValues(req.Method, req.URL.Host, status).Inc()
	httpClientRequestDurationSeconds.WithLabelValues(req.Method, req.URL.Host, status).Observe(elapsed.Seconds())

	attrs := []any{
		slog.String("run_id", RunIDFromContext(req.Context())),
		slog.String("method", req.Method),
		slog.String("host", req.URL.Host),
		slog.String("path", req.URL.Path),
		slog.String("status", status),
		slog.String("duration", elapsed.String()),
	}
	if err != nil {
		t.logger.WarnContext(req.Context(), "http_client_request", append(attrs, slog.Any("error", err))...)
		return nil, err
	}
	t.logger.DebugContext(req.Context(), "http_client_request", attrs...)
	return resp, nil
}
