package mappers

import (
	"sort"

	"github.com/thoas/go-funk"

	api "github.com/synthbed/tts-api/api/v1"
	"github.com/synthbed/tts-api/internal/engine"
	"github.com/synthbed/tts-api/internal/store/model"
)

func JobToApi(j model.Job) api.Job {
	return api.Job{
		JobID:            j.ID,
		Status:           string(j.Status),
		Language:         j.Language,
		TextLength:       len(j.Text),
		CreatedAt:        j.CreatedAt,
		StartedAt:        j.StartedAt,
		CompletedAt:      j.CompletedAt,
		AudioURL:         j.AudioURL,
		ErrorMessage:     j.ErrorMessage,
		WebhookDelivered: j.WebhookDelivered,
		WebhookAttempts:  j.WebhookAttempts,
	}
}

func JobListToApi(jobs []model.Job, total int, page int, pageSize int) api.JobList {
	return api.JobList{
		Jobs:     funk.Map(jobs, JobToApi).([]api.Job),
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}
}

func LanguageListToApi(m *engine.Manager) api.LanguageList {
	supported := m.SupportedLanguages()
	languages := make([]api.Language, 0, len(supported))
	for lang, modelName := range supported {
		languages = append(languages, api.Language{
			Language: lang,
			Model:    modelName,
			Loaded:   m.IsLoaded(lang),
			Default:  lang == m.DefaultLanguage(),
		})
	}
	sort.Slice(languages, func(i, j int) bool { return languages[i].Language < languages[j].Language })
	return api.LanguageList{Languages: languages, Default: m.DefaultLanguage()}
}
