package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmissionsCounter(t *testing.T) {
	before := testutil.ToFloat64(Submissions.WithLabelValues("EXPORT_FAILED", "not_found"))
	Submissions.WithLabelValues("EXPORT_FAILED", "not_found").Inc()
	after := testutil.ToFloat64(Submissions.WithLabelValues("EXPORT_FAILED", "not_found"))

	assert.Equal(t, before+1, after)
}

func TestPush_NoGatewayIsNoop(t *testing.T) {
	assert.NoError(t, Push(context.Background(), "", "logexport"))
}

func TestPush_SendsToGateway(t *testing.T) {
	var (
		mu   sync.Mutex
		path string
		body string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		path = r.URL.Path
		body = string(data)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ConfigEntries.Set(3)
	require.NoError(t, Push(context.Background(), srv.URL, "logexport"))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "/metrics/job/logexport", path)
	assert.NotEmpty(t, body)
}

func TestTimer(t *testing.T) {
	timer := NewTimer()
	first := timer.Stop()
	second := timer.Stop()
	assert.GreaterOrEqual(t, second, first)
}
