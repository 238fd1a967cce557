package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/smallbiznis/marketpay/internal/metrics"
	"go.uber.org/zap"
)

const sinkTimeout = 5 * time.Second

// httpSink posts JSON to the configured endpoints from a detached
// goroutine. An empty URL disables that endpoint.
type httpSink struct {
	auditURL  string
	notifyURL string
	client    *http.Client
	log       *zap.Logger
	metrics   *metrics.Metrics
}

func NewHTTPSink(auditURL, notifyURL string, log *zap.Logger, m *metrics.Metrics) Sink {
	return &httpSink{
		auditURL:  auditURL,
		notifyURL: notifyURL,
		client:    &http.Client{Timeout: sinkTimeout},
		log:       log.Named("notify"),
		metrics:   m,
	}
}

func (s *httpSink) Event(ctx context.Context, record EventRecord) {
	if s.auditURL == "" {
		return
	}
	s.post("audit", s.auditURL, record)
}

func (s *httpSink) Notify(ctx context.Context, message string) {
	if s.notifyURL == "" {
		return
	}
	s.post("notify", s.notifyURL, map[string]string{"message": message})
}

func (s *httpSink) post(sink, url string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		s.log.Warn("sink payload marshal failed", zap.String("sink", sink), zap.Error(err))
		return
	}

	// Detached from the request context so reconciliation never waits
	// on the sink.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			s.fail(sink, err)
			return
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.client.Do(req)
		if err != nil {
			s.fail(sink, err)
			return
		}
		defer resp.Body.Close()
		if resp.StatusCode >= http.StatusBadRequest {
			s.log.Warn("sink delivery rejected",
				zap.String("sink", sink),
				zap.Int("status", resp.StatusCode))
			s.metrics.RecordSinkFailure(sink)
		}
	}()
}

func (s *httpSink) fail(sink string, err error) {
	s.log.Warn("sink delivery failed", zap.String("sink", sink), zap.Error(err))
	s.metrics.RecordSinkFailure(sink)
}
