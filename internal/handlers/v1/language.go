package v1

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.uber.org/zap"

	api "github.com/synthbed/tts-api/api/v1"
	"github.com/synthbed/tts-api/internal/handlers/v1/mappers"
)

// (GET /v1/languages)
func (h *ServiceHandler) ListLanguages(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, mappers.LanguageListToApi(h.engine))
}

// (POST /v1/languages/{language}/load)
func (h *ServiceHandler) LoadLanguage(w http.ResponseWriter, r *http.Request) {
	language := h.engine.Normalize(chi.URLParam(r, "language"))

	if !h.engine.IsSupported(language) {
		respondError(w, r, http.StatusBadRequest, "invalid_request", "language "+language+" is not supported")
		return
	}

	if err := h.engine.EnsureReady(r.Context(), language); err != nil {
		zap.S().Named("language_handler").Errorw("model load failed", "language", language, "error", err)
		respondError(w, r, http.StatusInternalServerError, "load_failed", err.Error())
		return
	}

	render.JSON(w, r, api.Language{
		Language: language,
		Model:    h.engine.SupportedLanguages()[language],
		Loaded:   true,
		Default:  language == h.engine.DefaultLanguage(),
	})
}
