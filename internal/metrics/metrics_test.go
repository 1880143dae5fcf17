package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Dan9191/daily-diet/internal/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainCounters(t *testing.T) {
	m := New()

	m.UserRegistered()
	m.MealCreated()
	m.MealCreated()
	m.MealUpdated()
	m.MealDeleted()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.usersRegistered))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.mealsCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mealsUpdated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mealsDeleted))
}

func TestSetTotals(t *testing.T) {
	m := New()

	m.SetTotals(models.Stats{Users: 4, Meals: 17})

	assert.Equal(t, 4.0, testutil.ToFloat64(m.usersTotal))
	assert.Equal(t, 17.0, testutil.ToFloat64(m.mealsTotal))
}

func TestRecordHTTPRequest(t *testing.T) {
	m := New()

	m.IncrementInFlight()
	m.RecordHTTPRequest("GET", "/meals/{id}", "404", 20*time.Millisecond)
	m.DecrementInFlight()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/meals/{id}", "404")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.httpInFlight))
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New()
	m.MealCreated()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "daily_diet_meals_created_total 1")
}
