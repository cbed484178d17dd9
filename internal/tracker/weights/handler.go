package weights

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

type weightsRepo interface {
	List(ctx context.Context) ([]Sample, error)
	Add(ctx context.Context, sample Sample) error
}

type Handler struct {
	repo           weightsRepo
	metricsManager *metrics.Manager
	now            func() time.Time
}

func NewHandler(repo weightsRepo, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		repo:           repo,
		metricsManager: metricsManager,
		now:            time.Now,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/weights", handler.HandleAdd).Methods("POST", "OPTIONS").Name("new-weight")
	router.HandleFunc("/weights", handler.HandleList).Methods("GET", "OPTIONS").Name("list-weights")
}

type AddRequest struct {
	Kilos float64 `json:"kilos"`
	// Date is optional, today is assumed when empty
	Date string `json:"date"`
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.weights.add")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var req AddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("new weight, unmarshal json params: %s", err)
		http.Error(w, "add weight failed", http.StatusBadRequest)
		return
	}

	if req.Kilos <= 0 {
		http.Error(w, "error, kilos must be positive", http.StatusBadRequest)
		return
	}

	date := req.Date
	if date == "" {
		date = tracker.Day(handler.now()).Format(tracker.DayFormat)
	} else if day, ok := tracker.ParseDay(date); ok {
		date = day.Format(tracker.DayFormat)
	} else {
		http.Error(w, "error, invalid date", http.StatusBadRequest)
		return
	}

	sample := Sample{
		Date:  date,
		Kilos: req.Kilos,
	}

	if err := handler.repo.Add(ctx, sample); err != nil {
		log.Errorf("failed to add weight: %s", err)
		http.Error(w, "error, failed to add weight", http.StatusInternalServerError)
		return
	}

	handler.metricsManager.CounterWeightsAdded.Inc()

	sampleJson, err := json.Marshal(sample)
	if err != nil {
		log.Errorf("failed to marshal added weight: %s", err)
		http.Error(w, "error, failed to add weight", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, sampleJson, http.StatusCreated)
}

type ListResponse struct {
	Weights []Sample `json:"weights"`
	// Latest is the most recent weigh-in, zero when the log is empty
	Latest Sample `json:"latest"`
	// TotalChange is latest minus first, negative when losing weight
	TotalChange float64 `json:"totalChange"`
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.weights.list")
	defer span.End()

	samples, err := handler.repo.List(ctx)
	if err != nil {
		log.Errorf("list weights error: %s", err)
		http.Error(w, "failed to get weights", http.StatusInternalServerError)
		return
	}

	resp := ListResponse{
		Weights: samples,
	}
	if len(samples) > 0 {
		resp.Latest = samples[len(samples)-1]
		resp.TotalChange = resp.Latest.Kilos - samples[0].Kilos
	}

	respJson, err := json.Marshal(resp)
	if err != nil {
		log.Errorf("marshal weights error: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusOK)
}
