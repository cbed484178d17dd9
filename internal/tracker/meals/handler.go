package meals

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/2beens/pfctracker/internal/telemetry/metrics"
	"github.com/2beens/pfctracker/internal/telemetry/tracing"
	"github.com/2beens/pfctracker/internal/tracker"
	"github.com/2beens/pfctracker/internal/tracker/food"
	"github.com/2beens/pfctracker/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type mealsAdder interface {
	List(ctx context.Context) ([]Meal, error)
	Add(ctx context.Context, meal Meal) error
}

type foodRepo interface {
	GetByName(ctx context.Context, name string) (*food.Profile, error)
}

type Handler struct {
	repo           mealsAdder
	foodRepo       foodRepo
	analyzer       *Analyzer
	metricsManager *metrics.Manager
	now            func() time.Time
}

func NewHandler(
	repo mealsAdder,
	foods foodRepo,
	targets tracker.Targets,
	metricsManager *metrics.Manager,
) *Handler {
	return &Handler{
		repo:           repo,
		foodRepo:       foods,
		analyzer:       NewAnalyzer(repo, targets),
		metricsManager: metricsManager,
		now:            time.Now,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/meals", handler.HandleAddManual).Methods("POST", "OPTIONS").Name("new-meal")
	router.HandleFunc("/meals/smart", handler.HandleAddSmart).Methods("POST", "OPTIONS").Name("new-smart-meal")
	router.HandleFunc("/meals/list", handler.HandleList).Methods("GET", "OPTIONS").Name("list-meals")
	router.HandleFunc("/meals/today", handler.HandleToday).Methods("GET", "OPTIONS").Name("today-summary")
	router.HandleFunc("/meals/summary/{period}", handler.HandleSummary).Methods("GET", "OPTIONS").Name("period-summary")
}

type AddManualRequest struct {
	MealName string  `json:"mealName"`
	Protein  float64 `json:"protein"`
	Fat      float64 `json:"fat"`
	Carbs    float64 `json:"carbs"`
	Calories float64 `json:"calories"`
	Notes    string  `json:"notes"`
	ImageURL string  `json:"imageUrl"`
}

func (handler *Handler) HandleAddManual(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.meals.addManual")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var req AddManualRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("new meal, unmarshal json params: %s", err)
		http.Error(w, "add meal failed", http.StatusBadRequest)
		return
	}

	if req.MealName == "" {
		http.Error(w, "error, meal name empty", http.StatusBadRequest)
		return
	}
	if req.Protein < 0 || req.Fat < 0 || req.Carbs < 0 || req.Calories < 0 {
		http.Error(w, "error, negative macros", http.StatusBadRequest)
		return
	}

	calories := req.Calories
	if calories == 0 {
		calories = CaloriesFromMacros(req.Protein, req.Fat, req.Carbs)
	}

	now := handler.now()
	meal := Meal{
		Date:      tracker.Day(now).Format(tracker.DayFormat),
		Timestamp: now.Format("2006-01-02 15:04:05"),
		Name:      req.MealName,
		Protein:   req.Protein,
		Fat:       req.Fat,
		Carbs:     req.Carbs,
		Calories:  calories,
		Notes:     req.Notes,
		ImageURL:  req.ImageURL,
	}

	handler.addAndRespond(ctx, w, meal)
}

type AddSmartRequest struct {
	FoodName string  `json:"foodName"`
	Grams    float64 `json:"grams"`
	Notes    string  `json:"notes"`
	ImageURL string  `json:"imageUrl"`
}

func (handler *Handler) HandleAddSmart(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.meals.addSmart")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var req AddSmartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("new smart meal, unmarshal json params: %s", err)
		http.Error(w, "add meal failed", http.StatusBadRequest)
		return
	}

	if req.FoodName == "" {
		http.Error(w, "error, food name empty", http.StatusBadRequest)
		return
	}
	if req.Grams <= 0 {
		http.Error(w, "error, grams must be positive", http.StatusBadRequest)
		return
	}

	profile, err := handler.foodRepo.GetByName(ctx, req.FoodName)
	if err != nil {
		if errors.Is(err, food.ErrFoodNotFound) {
			http.Error(w, "food not found", http.StatusBadRequest)
			return
		}
		log.Errorf("failed to get food [%s]: %s", req.FoodName, err)
		http.Error(w, "failed to get food database", http.StatusInternalServerError)
		return
	}

	macros, err := profile.MacrosFor(req.Grams)
	if err != nil {
		http.Error(w, "invalid grams", http.StatusBadRequest)
		return
	}

	now := handler.now()
	meal := Meal{
		Date:      tracker.Day(now).Format(tracker.DayFormat),
		Timestamp: now.Format("2006-01-02 15:04:05"),
		Name:      profile.Name,
		Protein:   round1(macros.Protein),
		Fat:       round1(macros.Fat),
		Carbs:     round1(macros.Carbs),
		Calories:  round1(macros.Calories),
		Notes:     req.Notes,
		ImageURL:  req.ImageURL,
	}

	handler.addAndRespond(ctx, w, meal)
}

func (handler *Handler) addAndRespond(ctx context.Context, w http.ResponseWriter, meal Meal) {
	if err := handler.repo.Add(ctx, meal); err != nil {
		log.Errorf("failed to add meal [%s]: %s", meal.Name, err)
		http.Error(w, "error, failed to add meal", http.StatusInternalServerError)
		return
	}

	handler.metricsManager.CounterMealsAdded.Inc()

	mealJson, err := json.Marshal(meal)
	if err != nil {
		log.Errorf("failed to marshal added meal: %s", err)
		http.Error(w, "error, failed to add meal", http.StatusInternalServerError)
		return
	}

	log.Debugf("new meal added: %s", mealJson)
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, mealJson, http.StatusCreated)
}

type ListResponse struct {
	Meals []Meal `json:"meals"`
	Total int    `json:"total"`
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.meals.list")
	defer span.End()

	mealsList, err := handler.repo.List(ctx)
	if err != nil {
		log.Errorf("list meals error: %s", err)
		http.Error(w, "failed to get meals", http.StatusInternalServerError)
		return
	}

	respJson, err := json.Marshal(ListResponse{
		Meals: mealsList,
		Total: len(mealsList),
	})
	if err != nil {
		log.Errorf("marshal meals error: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusOK)
}

func (handler *Handler) HandleToday(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.meals.today")
	defer span.End()

	summary := handler.analyzer.TodaySummary(ctx, handler.now())

	summaryJson, err := json.Marshal(summary)
	if err != nil {
		log.Errorf("failed to marshal today summary: %s", err)
		http.Error(w, "failed to get today summary", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, summaryJson, http.StatusOK)
}

func (handler *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.meals.summary")
	defer span.End()

	now := handler.now()

	var summary interface{}
	switch mux.Vars(r)["period"] {
	case "week":
		summary = handler.analyzer.WeekSummary(ctx, now)
	case "month":
		summary = handler.analyzer.MonthSummary(ctx, now)
	case "year":
		summary = handler.analyzer.YearlySummary(ctx, now)
	default:
		http.Error(w, "unknown period, use week, month or year", http.StatusBadRequest)
		return
	}

	summaryJson, err := json.Marshal(summary)
	if err != nil {
		log.Errorf("failed to marshal period summary: %s", err)
		http.Error(w, "failed to get summary", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, summaryJson, http.StatusOK)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
