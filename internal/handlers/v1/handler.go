// Package v1 implements the public HTTP API on top of the job service.
package v1

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	api "github.com/synthbed/tts-api/api/v1"
	"github.com/synthbed/tts-api/internal/config"
	"github.com/synthbed/tts-api/internal/engine"
	"github.com/synthbed/tts-api/internal/handlers/validator"
	"github.com/synthbed/tts-api/internal/service"
	"github.com/synthbed/tts-api/internal/store"
	"github.com/synthbed/tts-api/internal/worker"
	"github.com/synthbed/tts-api/pkg/requestid"
)

type ServiceHandler struct {
	jobSrv    *service.JobService
	engine    *engine.Manager
	store     store.Store
	worker    *worker.Worker
	cfg       *config.Config
	validator *validator.Validator
}

func NewServiceHandler(jobSrv *service.JobService, eng *engine.Manager, s store.Store, w *worker.Worker, cfg *config.Config) *ServiceHandler {
	v := validator.NewValidator()
	v.Register(validator.NewJobValidationRules()...)

	return &ServiceHandler{
		jobSrv:    jobSrv,
		engine:    eng,
		store:     s,
		worker:    w,
		cfg:       cfg,
		validator: v,
	}
}

func (h *ServiceHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.GetServiceInfo)
	r.Get("/health", h.GetHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", h.GetHealth)
		r.Get("/languages", h.ListLanguages)
		r.Post("/languages/{language}/load", h.LoadLanguage)
		r.Post("/tts/async", h.CreateJob)
		r.Get("/jobs", h.ListJobs)
		r.Get("/jobs/{id}", h.GetJob)
		r.Delete("/jobs/{id}", h.CancelJob)
		r.Get("/download/{id}", h.DownloadAudio)
	})
}

func respondError(w http.ResponseWriter, r *http.Request, status int, code string, message string) {
	render.Status(r, status)
	render.JSON(w, r, api.Error{
		Error:     code,
		Message:   message,
		RequestID: requestid.FromContextPtr(r.Context()),
	})
}
