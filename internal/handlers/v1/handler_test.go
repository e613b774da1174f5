package v1_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	api "github.com/synthbed/tts-api/api/v1"
	apiserver "github.com/synthbed/tts-api/internal/api_server"
	"github.com/synthbed/tts-api/internal/audiostorage"
	"github.com/synthbed/tts-api/internal/config"
	"github.com/synthbed/tts-api/internal/engine"
	"github.com/synthbed/tts-api/internal/engine/sine"
	"github.com/synthbed/tts-api/internal/service"
	"github.com/synthbed/tts-api/internal/store"
	"github.com/synthbed/tts-api/internal/webhook"
	"github.com/synthbed/tts-api/internal/worker"
)

func TestHandlers(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Handlers Suite")
}

type hookRecorder struct {
	mu       sync.Mutex
	payloads []map[string]any
}

func (h *hookRecorder) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	var payload map[string]any
	_ = json.Unmarshal(body, &payload)

	h.mu.Lock()
	h.payloads = append(h.payloads, payload)
	h.mu.Unlock()

	w.WriteHeader(http.StatusOK)
}

func (h *hookRecorder) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.payloads)
}

type testEnv struct {
	server     *httptest.Server
	hookServer *httptest.Server
	hooks      *hookRecorder
	store      store.Store
	cancel     context.CancelFunc
}

func newTestEnv(pendingCeiling int, startWorker bool) *testEnv {
	cfg, err := config.NewDefault()
	Expect(err).To(BeNil())
	cfg.Pipeline.PendingCeiling = pendingCeiling
	cfg.Pipeline.WorkerPollInterval = 10 * time.Millisecond
	cfg.RateLimit.RequestsPerMinute = 10000
	cfg.RateLimit.RequestsPerHour = 100000

	hooks := &hookRecorder{}
	hookServer := httptest.NewServer(http.HandlerFunc(hooks.handle))

	s := store.NewStore()
	eng := engine.NewManager(cfg.Engine.SupportedLanguages, cfg.Engine.DefaultLanguage, sine.New())
	storage, err := audiostorage.NewLocalStorage(GinkgoT().TempDir())
	Expect(err).To(BeNil())

	dispatcher := webhook.NewDispatcher(s, cfg.Webhook.Secret, cfg.Webhook.Timeout, cfg.Webhook.MaxAttempts)
	jobSrv := service.NewJobService(s, eng, storage, dispatcher, cfg.Pipeline.PendingCeiling)
	w := worker.New(s, eng, storage, dispatcher, cfg.Pipeline.WorkerPollInterval)

	ctx, cancel := context.WithCancel(context.Background())
	if startWorker {
		go w.Run(ctx)
	}

	srv := apiserver.New(cfg, jobSrv, eng, s, w, nil)
	router, err := srv.Router()
	Expect(err).To(BeNil())

	return &testEnv{
		server:     httptest.NewServer(router),
		hookServer: hookServer,
		hooks:      hooks,
		store:      s,
		cancel:     cancel,
	}
}

func (e *testEnv) close() {
	e.cancel()
	e.server.Close()
	e.hookServer.Close()
}

func (e *testEnv) submit(text string, language string) (*http.Response, api.CreateJobResponse) {
	body, err := json.Marshal(api.CreateJobRequest{
		Text:       text,
		Language:   language,
		WebhookURL: e.hookServer.URL,
	})
	Expect(err).To(BeNil())

	resp, err := http.Post(e.server.URL+"/v1/tts/async", "application/json", bytes.NewReader(body))
	Expect(err).To(BeNil())

	var created api.CreateJobResponse
	if resp.StatusCode == http.StatusAccepted {
		Expect(json.NewDecoder(resp.Body).Decode(&created)).To(Succeed())
	}
	resp.Body.Close()
	return resp, created
}

func (e *testEnv) getJob(id string) (int, api.Job) {
	resp, err := http.Get(e.server.URL + "/v1/jobs/" + id)
	Expect(err).To(BeNil())
	defer resp.Body.Close()

	var job api.Job
	if resp.StatusCode == http.StatusOK {
		Expect(json.NewDecoder(resp.Body).Decode(&job)).To(Succeed())
	}
	return resp.StatusCode, job
}

func (e *testEnv) waitForStatus(id string, status string) api.Job {
	var job api.Job
	Eventually(func() string {
		code, j := e.getJob(id)
		Expect(code).To(Equal(http.StatusOK))
		job = j
		return j.Status
	}, 5*time.Second, 20*time.Millisecond).Should(Equal(status))
	return job
}

var _ = Describe("job handler", Ordered, func() {
	var env *testEnv

	BeforeAll(func() {
		env = newTestEnv(100, true)
	})

	AfterAll(func() {
		env.close()
	})

	Context("create", func() {
		It("accepts a valid job", func() {
			resp, created := env.submit("hello there", "oromo")
			Expect(resp.StatusCode).To(Equal(http.StatusAccepted))
			Expect(created.JobID).To(HavePrefix("job_"))
			Expect(created.Status).To(Equal("pending"))
		})

		It("defaults the language", func() {
			resp, created := env.submit("no language given", "")
			Expect(resp.StatusCode).To(Equal(http.StatusAccepted))

			job := env.waitForStatus(created.JobID, "completed")
			Expect(job.Language).To(Equal("oromo"))
		})

		It("normalizes language aliases", func() {
			resp, created := env.submit("alias", "am")
			Expect(resp.StatusCode).To(Equal(http.StatusAccepted))

			job := env.waitForStatus(created.JobID, "completed")
			Expect(job.Language).To(Equal("amharic"))
		})

		It("rejects empty text", func() {
			resp, _ := env.submit("   ", "oromo")
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("rejects an unsupported language", func() {
			resp, _ := env.submit("hello", "klingon")
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("rejects a non-http webhook url", func() {
			body, err := json.Marshal(api.CreateJobRequest{
				Text:       "hello",
				Language:   "oromo",
				WebhookURL: "ftp://example.com/hook",
			})
			Expect(err).To(BeNil())

			resp, err := http.Post(env.server.URL+"/v1/tts/async", "application/json", bytes.NewReader(body))
			Expect(err).To(BeNil())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("rejects a malformed body", func() {
			resp, err := http.Post(env.server.URL+"/v1/tts/async", "application/json", bytes.NewReader([]byte("{not json")))
			Expect(err).To(BeNil())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})

	Context("pipeline", func() {
		It("completes a job and serves the audio", func() {
			before := env.hooks.count()

			_, created := env.submit("synthesize me please", "oromo")
			job := env.waitForStatus(created.JobID, "completed")

			Expect(job.StartedAt).ToNot(BeNil())
			Expect(job.CompletedAt).ToNot(BeNil())
			Expect(job.AudioURL).ToNot(BeNil())
			Expect(*job.AudioURL).To(Equal("/v1/download/" + created.JobID))

			resp, err := http.Get(env.server.URL + *job.AudioURL)
			Expect(err).To(BeNil())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(Equal("audio/wav"))
			Expect(resp.Header.Get("X-Job-ID")).To(Equal(created.JobID))
			Expect(resp.Header.Get("X-Language")).To(Equal("oromo"))

			audio, err := io.ReadAll(resp.Body)
			Expect(err).To(BeNil())
			Expect(len(audio)).To(BeNumerically(">", 44))
			Expect(string(audio[:4])).To(Equal("RIFF"))

			Eventually(env.hooks.count, 2*time.Second, 20*time.Millisecond).Should(BeNumerically(">", before))

			delivered := env.waitForStatus(created.JobID, "completed")
			Eventually(func() bool {
				_, j := env.getJob(created.JobID)
				return j.WebhookDelivered
			}, 2*time.Second, 20*time.Millisecond).Should(BeTrue())
			Expect(delivered.TextLength).To(Equal(len("synthesize me please")))
		})

		It("rejects downloading an unknown job", func() {
			resp, err := http.Get(env.server.URL + "/v1/download/job_ffffffffffffffff")
			Expect(err).To(BeNil())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})
	})

	Context("get and list", func() {
		It("returns 404 for an unknown job", func() {
			code, _ := env.getJob("job_ffffffffffffffff")
			Expect(code).To(Equal(http.StatusNotFound))
		})

		It("pages the job list newest first", func() {
			_, first := env.submit("list item one", "oromo")
			_, second := env.submit("list item two", "oromo")

			resp, err := http.Get(env.server.URL + "/v1/jobs?page=1&page_size=2")
			Expect(err).To(BeNil())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var list api.JobList
			Expect(json.NewDecoder(resp.Body).Decode(&list)).To(Succeed())
			Expect(list.Jobs).To(HaveLen(2))
			Expect(list.Jobs[0].JobID).To(Equal(second.JobID))
			Expect(list.Jobs[1].JobID).To(Equal(first.JobID))
			Expect(list.Total).To(BeNumerically(">=", 2))
			Expect(list.Page).To(Equal(1))
			Expect(list.PageSize).To(Equal(2))
		})

		It("rejects invalid paging parameters", func() {
			for _, query := range []string{"page=0", "page=x", "page_size=0", "page_size=101"} {
				resp, err := http.Get(env.server.URL + "/v1/jobs?" + query)
				Expect(err).To(BeNil())
				resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest), "query %s", query)
			}
		})
	})

	Context("languages and health", func() {
		It("lists the supported languages", func() {
			resp, err := http.Get(env.server.URL + "/v1/languages")
			Expect(err).To(BeNil())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var list api.LanguageList
			Expect(json.NewDecoder(resp.Body).Decode(&list)).To(Succeed())
			Expect(list.Default).To(Equal("oromo"))
			Expect(list.Languages).To(HaveLen(2))
			Expect(list.Languages[0].Language).To(Equal("amharic"))
			Expect(list.Languages[1].Language).To(Equal("oromo"))
			Expect(list.Languages[1].Default).To(BeTrue())
		})

		It("preloads a model through an alias", func() {
			resp, err := http.Post(env.server.URL+"/v1/languages/am/load", "application/json", nil)
			Expect(err).To(BeNil())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var lang api.Language
			Expect(json.NewDecoder(resp.Body).Decode(&lang)).To(Succeed())
			Expect(lang.Language).To(Equal("amharic"))
			Expect(lang.Loaded).To(BeTrue())
		})

		It("rejects preloading an unsupported language", func() {
			resp, err := http.Post(env.server.URL+"/v1/languages/klingon/load", "application/json", nil)
			Expect(err).To(BeNil())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("reports health", func() {
			resp, err := http.Get(env.server.URL + "/health")
			Expect(err).To(BeNil())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var health api.Health
			Expect(json.NewDecoder(resp.Body).Decode(&health)).To(Succeed())
			Expect(health.Status).To(Equal("healthy"))
			Expect(health.WorkerRunning).To(BeTrue())
		})

		It("serves the service info on the root path", func() {
			resp, err := http.Get(env.server.URL + "/")
			Expect(err).To(BeNil())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		})
	})
})

var _ = Describe("cancellation and admission", Ordered, func() {
	var env *testEnv

	BeforeAll(func() {
		// no worker: jobs stay pending so cancellation and admission are deterministic
		env = newTestEnv(2, false)
	})

	AfterAll(func() {
		env.close()
	})

	It("cancels a pending job and keeps the record", func() {
		_, created := env.submit("cancel me", "oromo")

		req, err := http.NewRequest(http.MethodDelete, env.server.URL+"/v1/jobs/"+created.JobID, nil)
		Expect(err).To(BeNil())
		resp, err := http.DefaultClient.Do(req)
		Expect(err).To(BeNil())
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		var job api.Job
		Expect(json.NewDecoder(resp.Body).Decode(&job)).To(Succeed())
		Expect(job.Status).To(Equal("cancelled"))
		Expect(job.CompletedAt).ToNot(BeNil())

		// record survives, queue entry is gone
		code, kept := env.getJob(created.JobID)
		Expect(code).To(Equal(http.StatusOK))
		Expect(kept.Status).To(Equal("cancelled"))
		Expect(env.store.Queue().Remove(context.Background(), created.JobID)).To(BeFalse())

		// a second cancel conflicts
		resp2, err := http.DefaultClient.Do(req.Clone(context.Background()))
		Expect(err).To(BeNil())
		defer resp2.Body.Close()
		Expect(resp2.StatusCode).To(Equal(http.StatusConflict))
	})

	It("returns 404 when cancelling an unknown job", func() {
		req, err := http.NewRequest(http.MethodDelete, env.server.URL+"/v1/jobs/job_ffffffffffffffff", nil)
		Expect(err).To(BeNil())
		resp, err := http.DefaultClient.Do(req)
		Expect(err).To(BeNil())
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
	})

	It("refuses jobs above the pending ceiling", func() {
		resp, first := env.submit(fmt.Sprintf("fill slot %d", 1), "oromo")
		Expect(resp.StatusCode).To(Equal(http.StatusAccepted))
		resp, _ = env.submit(fmt.Sprintf("fill slot %d", 2), "oromo")
		Expect(resp.StatusCode).To(Equal(http.StatusAccepted))

		resp, _ = env.submit("over the ceiling", "oromo")
		Expect(resp.StatusCode).To(Equal(http.StatusTooManyRequests))

		// cancelling a pending job frees a slot
		req, err := http.NewRequest(http.MethodDelete, env.server.URL+"/v1/jobs/"+first.JobID, nil)
		Expect(err).To(BeNil())
		cancelResp, err := http.DefaultClient.Do(req)
		Expect(err).To(BeNil())
		cancelResp.Body.Close()
		Expect(cancelResp.StatusCode).To(Equal(http.StatusOK))

		resp, refill := env.submit("fits after cancel", "oromo")
		Expect(resp.StatusCode).To(Equal(http.StatusAccepted))

		// leave one free slot for the specs that follow
		req, err = http.NewRequest(http.MethodDelete, env.server.URL+"/v1/jobs/"+refill.JobID, nil)
		Expect(err).To(BeNil())
		cancelResp, err = http.DefaultClient.Do(req)
		Expect(err).To(BeNil())
		cancelResp.Body.Close()
	})

	It("rejects downloading a job that is not completed", func() {
		_, created := env.submit("still pending", "oromo")

		resp, err := http.Get(env.server.URL + "/v1/download/" + created.JobID)
		Expect(err).To(BeNil())
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusConflict))
	})
})
