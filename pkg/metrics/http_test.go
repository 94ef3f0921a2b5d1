package metrics

import (
	"net/http"
	"testing"
	"time"
)

func TestHTTPMetricsObserve(t *testing.T) {
	m := NewHTTPMetrics()
	m.Observe("/api/products", http.MethodGet, http.StatusOK, 120*time.Millisecond)
	m.Observe("/api/products", http.MethodGet, http.StatusOK, 80*time.Millisecond)
	m.Observe("/api/orders", http.MethodPost, http.StatusCreated, 200*time.Millisecond)

	mfs, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	var foundRequests, foundDuration bool
	for _, mf := range mfs {
		switch mf.GetName() {
		case "http_requests_total":
			foundRequests = true
			var total float64
			for _, metric := range mf.GetMetric() {
				total += metric.GetCounter().GetValue()
			}
			if total != 3 {
				t.Fatalf("expected 3 requests recorded, got %f", total)
			}
		case "http_request_duration_seconds":
			foundDuration = true
		}
	}

	if !foundRequests {
		t.Fatal("http_requests_total not exported")
	}
	if !foundDuration {
		t.Fatal("http_request_duration_seconds not exported")
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *HTTPMetrics
	m.Observe("/x", http.MethodGet, http.StatusOK, time.Millisecond)
	if m.Handler() == nil {
		t.Fatal("handler should never be nil")
	}
}
