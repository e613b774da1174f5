package v1

import (
	"net/http"

	"github.com/go-chi/render"

	api "github.com/synthbed/tts-api/api/v1"
	"github.com/synthbed/tts-api/internal/service"
	"github.com/synthbed/tts-api/pkg/version"
)

// (GET /health) and (GET /v1/health)
func (h *ServiceHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, api.Health{
		Status:          "healthy",
		WorkerRunning:   h.worker.Running(),
		QueueLength:     h.store.Queue().Len(r.Context()),
		PendingJobs:     h.store.Job().CountPending(r.Context()),
		LoadedLanguages: h.engine.LoadedLanguages(),
	})
}

// (GET /)
func (h *ServiceHandler) GetServiceInfo(w http.ResponseWriter, r *http.Request) {
	versionInfo := version.Get()

	render.JSON(w, r, api.Info{
		Name:        "tts-api",
		VersionName: versionInfo.GitVersion,
		GitCommit:   versionInfo.GitCommit,
		Endpoints: map[string]string{
			"create_job":    "POST /v1/tts/async",
			"get_job":       "GET /v1/jobs/{id}",
			"list_jobs":     "GET /v1/jobs",
			"cancel_job":    "DELETE /v1/jobs/{id}",
			"download":      "GET /v1/download/{id}",
			"languages":     "GET /v1/languages",
			"load_language": "POST /v1/languages/{language}/load",
			"health":        "GET /health",
		},
		Limits: api.Limits{
			MaxTextLength:      service.MaxTextLength,
			MaxPendingJobs:     h.cfg.Pipeline.PendingCeiling,
			RateLimitPerMinute: h.cfg.RateLimit.RequestsPerMinute,
			RateLimitPerHour:   h.cfg.RateLimit.RequestsPerHour,
		},
	})
}
