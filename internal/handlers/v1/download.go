package v1

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/synthbed/tts-api/internal/service"
)

// (GET /v1/download/{id})
func (h *ServiceHandler) DownloadAudio(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	data, job, err := h.jobSrv.DownloadAudio(r.Context(), id)
	if err != nil {
		switch err.(type) {
		case *service.ErrJobNotFound:
			respondError(w, r, http.StatusNotFound, "not_found", err.Error())
		case *service.ErrAudioNotReady:
			respondError(w, r, http.StatusConflict, "not_ready", err.Error())
		case *service.ErrAudioExpired:
			respondError(w, r, http.StatusGone, "expired", err.Error())
		default:
			respondError(w, r, http.StatusInternalServerError, "internal_error", "failed to fetch audio")
		}
		return
	}

	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", id+".wav"))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("X-Job-ID", job.ID)
	w.Header().Set("X-Language", job.Language)
	_, _ = w.Write(data)
}
