package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shreyescodes/erp-portal/internal/pkg/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRequest(t *testing.T) {
	m := New(nil)

	m.RequestStarted()
	m.ObserveRequest(http.MethodGet, "/api/v1/content/:id", http.StatusOK, 15*time.Millisecond)
	m.RequestStarted()
	m.ObserveRequest(http.MethodGet, "", http.StatusNotFound, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/api/v1/content/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "unmatched", "404")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.inFlight))
}

func TestPublishCountsDomainEvents(t *testing.T) {
	m := New(nil)

	m.Publish(websocket.Event{Type: websocket.EventContentPending})
	m.Publish(websocket.Event{Type: websocket.EventContentPending})
	m.Publish(websocket.Event{Type: websocket.EventComplaintCreated})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.domainEvents.WithLabelValues(websocket.EventContentPending)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.domainEvents.WithLabelValues(websocket.EventComplaintCreated)))
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New(func() int { return 3 })
	m.RateLimited()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "erp_portal_rate_limited_requests_total 1")
	assert.Contains(t, body, "erp_portal_feed_clients 3")
}
