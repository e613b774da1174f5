package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeModel struct {
	language string
	closed   atomic.Bool
}

func (m *fakeModel) Generate(ctx context.Context, text string) ([]byte, error) {
	return []byte(m.language + ":" + text), nil
}

func (m *fakeModel) Close() { m.closed.Store(true) }

type fakeLoader struct {
	loads  []string
	models map[string]*fakeModel
	err    error
}

func (l *fakeLoader) Load(ctx context.Context, language string, modelName string) (Model, error) {
	if l.err != nil {
		return nil, l.err
	}
	l.loads = append(l.loads, language)
	m := &fakeModel{language: language}
	if l.models == nil {
		l.models = make(map[string]*fakeModel)
	}
	l.models[language] = m
	return m, nil
}

func newTestManager(loader Loader) *Manager {
	return NewManager(map[string]string{
		"oromo":   "facebook/mms-tts-orm",
		"amharic": "facebook/mms-tts-amh",
	}, "oromo", loader)
}

func TestNormalize(t *testing.T) {
	m := newTestManager(&fakeLoader{})

	assert.Equal(t, "oromo", m.Normalize("OROMO"))
	assert.Equal(t, "oromo", m.Normalize("  oromo  "))
	assert.Equal(t, "oromo", m.Normalize("om"))
	assert.Equal(t, "amharic", m.Normalize("am"))
	assert.Equal(t, "oromo", m.Normalize(""))
	assert.Equal(t, "klingon", m.Normalize("klingon"))
}

func TestIsSupported(t *testing.T) {
	m := newTestManager(&fakeLoader{})

	assert.True(t, m.IsSupported("oromo"))
	assert.True(t, m.IsSupported("AM"))
	assert.True(t, m.IsSupported(""))
	assert.False(t, m.IsSupported("klingon"))
}

func TestSynthesizeLoadsOnFirstUse(t *testing.T) {
	loader := &fakeLoader{}
	m := newTestManager(loader)

	out, err := m.Synthesize(context.Background(), "hello", "oromo")
	require.NoError(t, err)
	assert.Equal(t, "oromo:hello", string(out))
	assert.Equal(t, []string{"oromo"}, loader.loads)

	// second call reuses the resident model
	_, err = m.Synthesize(context.Background(), "again", "oromo")
	require.NoError(t, err)
	assert.Equal(t, []string{"oromo"}, loader.loads)
	assert.Equal(t, []string{"oromo"}, m.LoadedLanguages())
}

func TestSingleResidentModelPolicy(t *testing.T) {
	loader := &fakeLoader{}
	m := newTestManager(loader)

	require.NoError(t, m.EnsureReady(context.Background(), "oromo"))
	oromoModel := loader.models["oromo"]

	require.NoError(t, m.EnsureReady(context.Background(), "amharic"))

	assert.True(t, oromoModel.closed.Load(), "previous resident model should be closed")
	assert.Equal(t, []string{"amharic"}, m.LoadedLanguages())
	assert.False(t, m.IsLoaded("oromo"))
	assert.True(t, m.IsLoaded("amharic"))
}

type gatedModel struct {
	language string
	closed   atomic.Bool
	started  chan struct{}
	release  chan struct{}
}

func (m *gatedModel) Generate(ctx context.Context, text string) ([]byte, error) {
	close(m.started)
	<-m.release
	return []byte(m.language + ":" + text), nil
}

func (m *gatedModel) Close() { m.closed.Store(true) }

type gatedLoader struct {
	models map[string]*gatedModel
}

func (l *gatedLoader) Load(ctx context.Context, language string, modelName string) (Model, error) {
	m := &gatedModel{
		language: language,
		started:  make(chan struct{}),
		release:  make(chan struct{}),
	}
	if l.models == nil {
		l.models = make(map[string]*gatedModel)
	}
	l.models[language] = m
	return m, nil
}

func TestEvictionWaitsForInFlightGenerate(t *testing.T) {
	loader := &gatedLoader{}
	m := newTestManager(loader)

	require.NoError(t, m.EnsureReady(context.Background(), "oromo"))
	oromo := loader.models["oromo"]

	done := make(chan error, 1)
	go func() {
		_, err := m.Synthesize(context.Background(), "hello", "oromo")
		done <- err
	}()
	<-oromo.started

	// evicting while the generate is in flight must not close the model
	require.NoError(t, m.EnsureReady(context.Background(), "amharic"))
	assert.False(t, oromo.closed.Load(), "model closed with a generate in flight")
	assert.Equal(t, []string{"amharic"}, m.LoadedLanguages())

	close(oromo.release)
	require.NoError(t, <-done)
	assert.True(t, oromo.closed.Load(), "evicted model should close once idle")
}

func TestUnsupportedLanguage(t *testing.T) {
	m := newTestManager(&fakeLoader{})

	err := m.EnsureReady(context.Background(), "klingon")
	var unsupported *UnsupportedLanguageError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "klingon", unsupported.Language)
	assert.Equal(t, []string{"amharic", "oromo"}, unsupported.Supported)
}

func TestLoadFailure(t *testing.T) {
	loadErr := errors.New("model server unreachable")
	m := newTestManager(&fakeLoader{err: loadErr})

	err := m.EnsureReady(context.Background(), "oromo")
	var failed *LoadError
	require.ErrorAs(t, err, &failed)
	assert.ErrorIs(t, err, loadErr)
	assert.Empty(t, m.LoadedLanguages())
}
