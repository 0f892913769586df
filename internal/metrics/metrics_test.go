package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitIsIdempotent(t *testing.T) {
	Init()
	first := fetchesTotal
	Init()
	assert.Same(t, first, fetchesTotal)
}

func TestObserveFetch(t *testing.T) {
	Init()
	before := testutil.ToFloat64(fetchesTotal.WithLabelValues("listing", FetchHTTPError))
	ObserveFetch("listing", FetchHTTPError, time.Second)
	after := testutil.ToFloat64(fetchesTotal.WithLabelValues("listing", FetchHTTPError))
	assert.InDelta(t, 1, after-before, 0.001)
}

func TestObserveRowAndRejection(t *testing.T) {
	Init()
	beforeRow := testutil.ToFloat64(rowsTotal.WithLabelValues("players", "inserted"))
	ObserveRow("players", "inserted")
	assert.InDelta(t, 1, testutil.ToFloat64(rowsTotal.WithLabelValues("players", "inserted"))-beforeRow, 0.001)

	beforeRej := testutil.ToFloat64(rejectionsTotal.WithLabelValues("detail", "missing_number"))
	ObserveRejection("detail", "missing_number")
	assert.InDelta(t, 1, testutil.ToFloat64(rejectionsTotal.WithLabelValues("detail", "missing_number"))-beforeRej, 0.001)
}

func TestMiddleware(t *testing.T) {
	Init()
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/test", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/notfound", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	ts := httptest.NewServer(r)
	defer ts.Close()

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "404"))
	for _, path := range []string{"/test", "/notfound"} {
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
	}
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "404"))
	assert.InDelta(t, 1, after-before, 0.001)
}

func TestHandlerServesRegistry(t *testing.T) {
	Init()
	ObserveWorkUnit("listing", "ok")
	ObservePacingDelay(2 * time.Second)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "roster_work_units_total")
	assert.Contains(t, rec.Body.String(), "roster_pacing_delay_seconds")
}
