package dashboard

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"time"

	"github.com/2beens/pfctracker/internal/telemetry/tracing"
	"github.com/2beens/pfctracker/internal/tracker"
	"github.com/2beens/pfctracker/internal/tracker/meals"
	"github.com/2beens/pfctracker/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type todayAnalyzer interface {
	TodaySummary(ctx context.Context, now time.Time) *meals.TodaySummary
}

// Handler serves the landing view: the countdown to the goal date plus
// today's summary in one response.
type Handler struct {
	analyzer todayAnalyzer
	goalDay  time.Time
	now      func() time.Time
}

func NewHandler(analyzer todayAnalyzer, goalDay time.Time) *Handler {
	return &Handler{
		analyzer: analyzer,
		goalDay:  goalDay,
		now:      time.Now,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/dashboard", handler.HandleDashboard).Methods("GET", "OPTIONS").Name("dashboard")
}

type Response struct {
	GoalDate string `json:"goalDate"`
	// DaysLeft until the goal date, zero once it has passed
	DaysLeft int `json:"daysLeft"`
	// GoalProgress runs from 0 a year out to 1 on the day itself
	GoalProgress float64             `json:"goalProgress"`
	Today        *meals.TodaySummary `json:"today"`
}

func (handler *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.dashboard")
	defer span.End()

	now := handler.now()
	daysLeft := DaysLeft(handler.goalDay, now)

	resp := Response{
		GoalDate:     handler.goalDay.Format(tracker.DayFormat),
		DaysLeft:     daysLeft,
		GoalProgress: GoalProgress(daysLeft),
		Today:        handler.analyzer.TodaySummary(ctx, now),
	}

	respJson, err := json.Marshal(resp)
	if err != nil {
		log.Errorf("failed to marshal dashboard: %s", err)
		http.Error(w, "failed to get dashboard", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusOK)
}

// DaysLeft counts whole calendar days between now and the goal day,
// never negative
func DaysLeft(goalDay, now time.Time) int {
	left := int(math.Ceil(goalDay.Sub(tracker.Day(now)).Hours() / 24))
	if left < 0 {
		return 0
	}
	return left
}

// GoalProgress maps the final year before the goal onto [0, 1]
func GoalProgress(daysLeft int) float64 {
	progress := 1 - float64(daysLeft)/365
	if progress < 0 {
		return 0
	}
	if progress > 1 {
		return 1
	}
	return progress
}
