package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_ObserveScreen(t *testing.T) {
	r := New()

	r.ObserveScreen("sum", 20*time.Millisecond, 12, map[string]int{
		"non_positive_price": 2,
		"missing_field":      1,
	})

	assert.Equal(t, float64(1), testutil.ToFloat64(r.ScreenRuns.WithLabelValues("sum", "ok")))
	assert.Equal(t, float64(12), testutil.ToFloat64(r.RankedCompanies))
	assert.Equal(t, float64(2), testutil.ToFloat64(r.ExcludedRecords.WithLabelValues("non_positive_price")))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.ExcludedRecords.WithLabelValues("missing_field")))
}

func TestRegistry_ObserveFetchAndError(t *testing.T) {
	r := New()

	r.ObserveFetch("yahoo", true)
	r.ObserveFetch("yahoo", false)
	r.ObserveFetch("yahoo", false)
	r.ObserveScreenError("blended")

	assert.Equal(t, float64(1), testutil.ToFloat64(r.FetchResults.WithLabelValues("yahoo", "ok")))
	assert.Equal(t, float64(2), testutil.ToFloat64(r.FetchResults.WithLabelValues("yahoo", "error")))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.ScreenRuns.WithLabelValues("blended", "error")))
}

func TestRegistry_Handler(t *testing.T) {
	r := New()
	r.ObserveScreen("sum", time.Millisecond, 3, nil)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "fundscreen_ranked_companies 3"))
}
