package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/minibank/internal/metrics"
)

func TestMetricsMiddleware(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	route := "GET /test/metrics"
	counter := metrics.HTTPRequests.WithLabelValues(http.MethodGet, route, "418")
	before := testutil.ToFloat64(counter)

	srv := httptest.NewServer(MetricsMiddleware(route)(h))
	defer srv.Close()

	for range 2 {
		resp, err := http.Get(srv.URL + "/anything")
		require.NoError(t, err)
		_ = resp.Body.Close()
		require.Equal(t, http.StatusTeapot, resp.StatusCode)
	}

	require.InDelta(t, before+2, testutil.ToFloat64(counter), 0.001, "each request counted under the route label")
}
