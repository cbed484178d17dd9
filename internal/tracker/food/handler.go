package food

import (
	"encoding/json"
	"net/http"

	"github.com/2beens/pfctracker/internal/telemetry/tracing"
	"github.com/2beens/pfctracker/pkg"

	log "github.com/sirupsen/logrus"
)

type Handler struct {
	repo *Repo
}

func NewHandler(repo *Repo) *Handler {
	return &Handler{
		repo: repo,
	}
}

type ListResponse struct {
	Foods []Profile `json:"foods"`
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.food.list")
	defer span.End()

	foods, err := handler.repo.GetAll(ctx)
	if err != nil {
		log.Errorf("failed to get food database: %s", err)
		http.Error(w, "failed to get food database", http.StatusInternalServerError)
		return
	}

	respJson, err := json.Marshal(ListResponse{Foods: foods})
	if err != nil {
		log.Errorf("failed to marshal food list: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusOK)
}
