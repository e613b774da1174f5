package engine

import (
	"context"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// iso code aliases accepted in requests
var languageAliases = map[string]string{
	"om": "oromo",
	"am": "amharic",
}

// Manager implements Engine over a Loader and owns the set of resident
// models. Loading a language evicts every other resident model: the backend
// may hold at most one loaded model set at a time.
type Manager struct {
	mu              sync.Mutex
	supported       map[string]string
	models          map[string]*resident
	loader          Loader
	defaultLanguage string
}

// resident tracks in-flight generates so eviction never closes a model that
// is still producing audio. busy and doomed are guarded by Manager.mu.
type resident struct {
	model  Model
	busy   int
	doomed bool
}

func NewManager(supported map[string]string, defaultLanguage string, loader Loader) *Manager {
	return &Manager{
		supported:       supported,
		models:          make(map[string]*resident),
		loader:          loader,
		defaultLanguage: defaultLanguage,
	}
}

// Normalize lowercases, trims and resolves aliases. Empty input resolves to
// the default language.
func (m *Manager) Normalize(language string) string {
	language = strings.ToLower(strings.TrimSpace(language))
	if language == "" {
		return m.defaultLanguage
	}
	if full, ok := languageAliases[language]; ok {
		return full
	}
	return language
}

func (m *Manager) IsSupported(language string) bool {
	_, ok := m.supported[m.Normalize(language)]
	return ok
}

func (m *Manager) DefaultLanguage() string {
	return m.defaultLanguage
}

// SupportedLanguages returns the language -> model name table.
func (m *Manager) SupportedLanguages() map[string]string {
	out := make(map[string]string, len(m.supported))
	for k, v := range m.supported {
		out[k] = v
	}
	return out
}

func (m *Manager) LoadedLanguages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, 0, len(m.models))
	for lang := range m.models {
		out = append(out, lang)
	}
	sort.Strings(out)
	return out
}

func (m *Manager) IsLoaded(language string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.models[m.Normalize(language)]
	return ok
}

func (m *Manager) EnsureReady(ctx context.Context, language string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, err := m.readyLocked(ctx, language)
	return err
}

func (m *Manager) Synthesize(ctx context.Context, text string, language string) ([]byte, error) {
	m.mu.Lock()
	r, err := m.readyLocked(ctx, language)
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}
	r.busy++
	m.mu.Unlock()

	data, genErr := r.model.Generate(ctx, text)

	m.mu.Lock()
	r.busy--
	if r.doomed && r.busy == 0 {
		r.model.Close()
	}
	m.mu.Unlock()

	return data, genErr
}

func (m *Manager) readyLocked(ctx context.Context, language string) (*resident, error) {
	language = m.Normalize(language)

	modelName, ok := m.supported[language]
	if !ok {
		return nil, &UnsupportedLanguageError{Language: language, Supported: m.supportedNames()}
	}

	if r, loaded := m.models[language]; loaded {
		return r, nil
	}

	// Single resident model set: evict everything else before loading. A
	// model with a generate in flight is marked doomed and closed by the
	// last Synthesize call using it.
	for loadedLang, r := range m.models {
		zap.S().Named("engine").Infow("unloading resident model", "language", loadedLang, "requested", language)
		delete(m.models, loadedLang)
		if r.busy > 0 {
			r.doomed = true
			continue
		}
		r.model.Close()
	}

	zap.S().Named("engine").Infow("loading model", "language", language, "model", modelName)
	model, err := m.loader.Load(ctx, language, modelName)
	if err != nil {
		return nil, &LoadError{Language: language, Err: err}
	}
	r := &resident{model: model}
	m.models[language] = r

	return r, nil
}

func (m *Manager) supportedNames() []string {
	names := make([]string, 0, len(m.supported))
	for lang := range m.supported {
		names = append(names, lang)
	}
	sort.Strings(names)
	return names
}
