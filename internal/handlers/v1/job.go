package v1

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.uber.org/zap"

	api "github.com/synthbed/tts-api/api/v1"
	"github.com/synthbed/tts-api/internal/handlers/v1/mappers"
	"github.com/synthbed/tts-api/internal/service"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// (POST /v1/tts/async)
func (h *ServiceHandler) CreateJob(w http.ResponseWriter, r *http.Request) {
	logger := zap.S().Named("job_handler")

	var request api.CreateJobRequest
	if err := render.DecodeJSON(r.Body, &request); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_request", "malformed request body")
		return
	}
	if err := h.validator.Struct(request); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	job, err := h.jobSrv.CreateJob(r.Context(), request.Text, request.Language, request.WebhookURL)
	if err != nil {
		switch err.(type) {
		case *service.ErrInvalidRequest, *service.ErrUnsupportedLanguage:
			respondError(w, r, http.StatusBadRequest, "invalid_request", err.Error())
		case *service.ErrQueueFull:
			respondError(w, r, http.StatusTooManyRequests, "queue_full", err.Error())
		default:
			logger.Errorw("failed to create job", "error", err)
			respondError(w, r, http.StatusInternalServerError, "internal_error", "failed to create job")
		}
		return
	}

	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, api.CreateJobResponse{
		JobID:     job.ID,
		Status:    string(job.Status),
		CreatedAt: job.CreatedAt,
		Message:   "job accepted for processing",
	})
}

// (GET /v1/jobs/{id})
func (h *ServiceHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	job, err := h.jobSrv.GetJob(r.Context(), id)
	if err != nil {
		respondError(w, r, http.StatusNotFound, "not_found", err.Error())
		return
	}

	render.JSON(w, r, mappers.JobToApi(*job))
}

// (GET /v1/jobs)
func (h *ServiceHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			respondError(w, r, http.StatusBadRequest, "invalid_request", "page must be a positive integer")
			return
		}
		page = parsed
	}

	pageSize := defaultPageSize
	if raw := r.URL.Query().Get("page_size"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxPageSize {
			respondError(w, r, http.StatusBadRequest, "invalid_request", "page_size must be between 1 and 100")
			return
		}
		pageSize = parsed
	}

	jobs, total, err := h.jobSrv.ListJobs(r.Context(), page, pageSize)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "internal_error", "failed to list jobs")
		return
	}

	render.JSON(w, r, mappers.JobListToApi(jobs, total, page, pageSize))
}

// (DELETE /v1/jobs/{id})
func (h *ServiceHandler) CancelJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	job, err := h.jobSrv.CancelJob(r.Context(), id)
	if err != nil {
		switch err.(type) {
		case *service.ErrJobNotFound:
			respondError(w, r, http.StatusNotFound, "not_found", err.Error())
		case *service.ErrJobNotCancellable:
			respondError(w, r, http.StatusConflict, "conflict", err.Error())
		default:
			respondError(w, r, http.StatusInternalServerError, "internal_error", "failed to cancel job")
		}
		return
	}

	render.JSON(w, r, mappers.JobToApi(*job))
}
