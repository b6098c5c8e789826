package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstrumentHandler_UsesRouteTemplate(t *testing.T) {
	r := mux.NewRouter()
	r.Use(InstrumentHandler)
	r.HandleFunc("/api/v1/equipment/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}).Methods(http.MethodGet)

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/v1/equipment/{id}", "418"))
	for _, id := range []string{"1", "2"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/equipment/"+id, nil))
		require.Equal(t, http.StatusTeapot, rec.Code)
	}
	after := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/api/v1/equipment/{id}", "418"))
	assert.Equal(t, 2.0, after-before)
}

func TestRecordJobRun(t *testing.T) {
	before := testutil.ToFloat64(jobAffected.WithLabelValues("test_job"))
	RecordJobRun("test_job", 0, 3, true)
	RecordJobRun("test_job", time.Second, 0, false)

	assert.Equal(t, 3.0, testutil.ToFloat64(jobAffected.WithLabelValues("test_job"))-before)
	assert.Equal(t, 1.0, testutil.ToFloat64(jobRuns.WithLabelValues("test_job", "false")))
}

func TestHandler_ExposesCollectors(t *testing.T) {
	WSConnected("notifications", 1)
	defer WSConnected("notifications", -1)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "equiprent_ws_connections"))
}
