package workouts

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/2beens/pfctracker/internal/telemetry/metrics"
	"github.com/2beens/pfctracker/internal/telemetry/tracing"
	"github.com/2beens/pfctracker/internal/tracker"
	"github.com/2beens/pfctracker/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type workoutsRepo interface {
	List(ctx context.Context) ([]Workout, error)
	Add(ctx context.Context, workout Workout) error
}

type Handler struct {
	repo           workoutsRepo
	metricsManager *metrics.Manager
	now            func() time.Time
}

func NewHandler(repo workoutsRepo, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		repo:           repo,
		metricsManager: metricsManager,
		now:            time.Now,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/workouts", handler.HandleAdd).Methods("POST", "OPTIONS").Name("new-workout")
	router.HandleFunc("/workouts", handler.HandleList).Methods("GET", "OPTIONS").Name("list-workouts")
}

type AddRequest struct {
	WorkoutName string `json:"workoutName"`
	YoutubeLink string `json:"youtubeLink"`
	Notes       string `json:"notes"`
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.add")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var req AddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("new workout, unmarshal json params: %s", err)
		http.Error(w, "add workout failed", http.StatusBadRequest)
		return
	}

	if req.WorkoutName == "" {
		http.Error(w, "error, workout name empty", http.StatusBadRequest)
		return
	}

	workout := Workout{
		Date:        tracker.Day(handler.now()).Format(tracker.DayFormat),
		Name:        req.WorkoutName,
		YoutubeLink: req.YoutubeLink,
		Notes:       req.Notes,
	}

	if err := handler.repo.Add(ctx, workout); err != nil {
		log.Errorf("failed to add workout [%s]: %s", workout.Name, err)
		http.Error(w, "error, failed to add workout", http.StatusInternalServerError)
		return
	}

	handler.metricsManager.CounterWorkoutsAdded.Inc()

	workoutJson, err := json.Marshal(workout)
	if err != nil {
		log.Errorf("failed to marshal added workout: %s", err)
		http.Error(w, "error, failed to add workout", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, workoutJson, http.StatusCreated)
}

type ListResponse struct {
	Workouts []Workout `json:"workouts"`
	Total    int       `json:"total"`
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.list")
	defer span.End()

	workoutsList, err := handler.repo.List(ctx)
	if err != nil {
		log.Errorf("list workouts error: %s", err)
		http.Error(w, "failed to get workouts", http.StatusInternalServerError)
		return
	}

	respJson, err := json.Marshal(ListResponse{
		Workouts: workoutsList,
		Total:    len(workoutsList),
	})
	if err != nil {
		log.Errorf("marshal workouts error: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusOK)
}
