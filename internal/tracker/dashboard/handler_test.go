package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/2beens/pfctracker/internal/tracker/meals"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type analyzerStub struct {
	summary *meals.TodaySummary
}

func (s *analyzerStub) TodaySummary(_ context.Context, _ time.Time) *meals.TodaySummary {
	return s.summary
}

func TestDaysLeft(t *testing.T) {
	goal := time.Date(2026, 6, 23, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 18, DaysLeft(goal, time.Date(2026, 6, 5, 15, 30, 0, 0, time.UTC)))
	assert.Equal(t, 1, DaysLeft(goal, time.Date(2026, 6, 22, 23, 59, 0, 0, time.UTC)))
	assert.Equal(t, 0, DaysLeft(goal, time.Date(2026, 6, 23, 8, 0, 0, 0, time.UTC)))
	// past the goal stays at zero
	assert.Equal(t, 0, DaysLeft(goal, time.Date(2026, 7, 10, 8, 0, 0, 0, time.UTC)))
}

func TestGoalProgress(t *testing.T) {
	assert.InDelta(t, 1, GoalProgress(0), 0.0001)
	assert.InDelta(t, 0, GoalProgress(365), 0.0001)
	assert.InDelta(t, 0.5, GoalProgress(182), 0.01)
	// more than a year out clamps to zero
	assert.InDelta(t, 0, GoalProgress(500), 0.0001)
}

func TestHandler_Dashboard(t *testing.T) {
	goal := time.Date(2026, 6, 23, 0, 0, 0, 0, time.UTC)
	handler := NewHandler(&analyzerStub{
		summary: &meals.TodaySummary{
			Date:  "2026-06-05",
			Score: 86,
		},
	}, goal)
	handler.now = func() time.Time {
		return time.Date(2026, 6, 5, 15, 30, 0, 0, time.UTC)
	}

	router := mux.NewRouter()
	handler.SetupRoutes(router)

	req, err := http.NewRequest("GET", "/dashboard", nil)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "2026-06-23", resp.GoalDate)
	assert.Equal(t, 18, resp.DaysLeft)
	assert.InDelta(t, 1-18.0/365, resp.GoalProgress, 0.0001)
	require.NotNil(t, resp.Today)
	assert.Equal(t, 86, resp.Today.Score)
}
