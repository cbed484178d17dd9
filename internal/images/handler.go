package images

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/2beens/pfctracker/internal/telemetry/tracing"
	"github.com/2beens/pfctracker/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

const maxUploadedImageSize = 1024 * 1024 * 20 // 20 MB

type Handler struct {
	api *DiskApi
}

func NewHandler(api *DiskApi) *Handler {
	return &Handler{
		api: api,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/meals/image", handler.HandleUpload).Methods("POST", "OPTIONS").Name("upload-meal-image")
	router.HandleFunc("/meals/image/{id}", handler.HandleGet).Methods("GET", "OPTIONS").Name("get-meal-image")
}

type UploadResponse struct {
	Id       string `json:"id"`
	ImageURL string `json:"imageUrl"`
}

func (handler *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.images.upload")
	defer span.End()

	if err := r.ParseMultipartForm(maxUploadedImageSize); err != nil {
		log.Errorf("upload meal image, parse multipart form: %s", err)
		http.Error(w, "internal error or image too big", http.StatusBadRequest)
		return
	}

	file, fileHeader, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "error, image file missing", http.StatusBadRequest)
		return
	}
	defer file.Close()

	log.Tracef("new meal image incoming: %s [%d bytes]", fileHeader.Filename, fileHeader.Size)

	id, err := handler.api.Save(ctx, fileHeader.Filename, file)
	if err != nil {
		if errors.Is(err, ErrUnsupportedType) {
			http.Error(w, "error, unsupported image type", http.StatusBadRequest)
			return
		}
		log.Errorf("upload meal image: %s", err)
		http.Error(w, "failed to upload image", http.StatusInternalServerError)
		return
	}

	respJson, err := json.Marshal(UploadResponse{
		Id:       id,
		ImageURL: fmt.Sprintf("/meals/image/%s", id),
	})
	if err != nil {
		log.Errorf("marshal upload response: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusCreated)
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.images.get")
	defer span.End()

	id := mux.Vars(r)["id"]
	if id == "" {
		http.Error(w, "error, image ID empty", http.StatusBadRequest)
		return
	}

	file, err := handler.api.Open(ctx, id)
	if err != nil {
		if errors.Is(err, ErrImageNotFound) {
			http.NotFound(w, r)
			return
		}
		log.Errorf("get meal image [%s]: %s", id, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	defer file.Close()

	http.ServeContent(w, r, id, time.Time{}, file)
}
