package store_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/synthbed/tts-api/internal/store"
	"github.com/synthbed/tts-api/internal/store/model"
)

func TestStore(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Store Suite")
}

const pendingCeiling = 100

var _ = Describe("job store", func() {
	var s store.Store

	BeforeEach(func() {
		s = store.NewStore()
		Expect(s).ToNot(BeNil())
	})

	AfterEach(func() {
		_ = s.Close()
	})

	Context("Create", func() {
		It("registers and enqueues a pending job", func() {
			job, err := s.Job().Create(context.TODO(), model.NewJob("hello", "oromo", "http://cb.local/hook"), pendingCeiling)
			Expect(err).To(BeNil())
			Expect(job.ID).To(HavePrefix("job_"))
			Expect(job.ID).To(HaveLen(len("job_") + 16))
			Expect(job.Status).To(Equal(model.JobStatusPending))

			Expect(s.Job().Count(context.TODO())).To(Equal(1))
			Expect(s.Job().CountPending(context.TODO())).To(Equal(1))
			Expect(s.Queue().Len(context.TODO())).To(Equal(1))
		})

		It("admits exactly the ceiling of pending jobs", func() {
			for i := 0; i < pendingCeiling; i++ {
				_, err := s.Job().Create(context.TODO(), model.NewJob(fmt.Sprintf("text %d", i), "oromo", "http://cb.local/hook"), pendingCeiling)
				Expect(err).To(BeNil())
			}

			_, err := s.Job().Create(context.TODO(), model.NewJob("one too many", "oromo", "http://cb.local/hook"), pendingCeiling)
			Expect(err).To(MatchError(store.ErrPendingCeiling))
			Expect(s.Job().Count(context.TODO())).To(Equal(pendingCeiling))
		})

		It("frees admission capacity when a pending job leaves the state", func() {
			ids := make([]string, 0, pendingCeiling)
			for i := 0; i < pendingCeiling; i++ {
				job, err := s.Job().Create(context.TODO(), model.NewJob(fmt.Sprintf("text %d", i), "oromo", "http://cb.local/hook"), pendingCeiling)
				Expect(err).To(BeNil())
				ids = append(ids, job.ID)
			}

			_, err := s.Job().UpdateStatus(context.TODO(), ids[0], model.JobStatusProcessing)
			Expect(err).To(BeNil())

			_, err = s.Job().Create(context.TODO(), model.NewJob("fits again", "oromo", "http://cb.local/hook"), pendingCeiling)
			Expect(err).To(BeNil())
		})

		It("disables admission control for a non-positive ceiling", func() {
			for i := 0; i < 150; i++ {
				_, err := s.Job().Create(context.TODO(), model.NewJob("t", "oromo", "http://cb.local/hook"), 0)
				Expect(err).To(BeNil())
			}
			Expect(s.Job().Count(context.TODO())).To(Equal(150))
		})
	})

	Context("Get", func() {
		It("returns a copy of the stored job", func() {
			created, err := s.Job().Create(context.TODO(), model.NewJob("hello", "oromo", "http://cb.local/hook"), pendingCeiling)
			Expect(err).To(BeNil())

			got, err := s.Job().Get(context.TODO(), created.ID)
			Expect(err).To(BeNil())
			Expect(got.Text).To(Equal("hello"))

			// mutating the returned value must not leak into the store
			got.Text = "mutated"
			again, err := s.Job().Get(context.TODO(), created.ID)
			Expect(err).To(BeNil())
			Expect(again.Text).To(Equal("hello"))
		})

		It("returns ErrJobNotFound for an unknown id", func() {
			_, err := s.Job().Get(context.TODO(), "job_0000000000000000")
			Expect(err).To(MatchError(store.ErrJobNotFound))
		})
	})

	Context("List", func() {
		It("returns jobs newest first with offset and limit", func() {
			ids := make([]string, 0, 5)
			for i := 0; i < 5; i++ {
				job, err := s.Job().Create(context.TODO(), model.NewJob(fmt.Sprintf("text %d", i), "oromo", "http://cb.local/hook"), pendingCeiling)
				Expect(err).To(BeNil())
				ids = append(ids, job.ID)
			}

			page, err := s.Job().List(context.TODO(), 0, 2)
			Expect(err).To(BeNil())
			Expect(page).To(HaveLen(2))
			Expect(page[0].ID).To(Equal(ids[4]))
			Expect(page[1].ID).To(Equal(ids[3]))

			page, err = s.Job().List(context.TODO(), 2, 2)
			Expect(err).To(BeNil())
			Expect(page).To(HaveLen(2))
			Expect(page[0].ID).To(Equal(ids[2]))
			Expect(page[1].ID).To(Equal(ids[1]))

			page, err = s.Job().List(context.TODO(), 4, 2)
			Expect(err).To(BeNil())
			Expect(page).To(HaveLen(1))
			Expect(page[0].ID).To(Equal(ids[0]))
		})
	})

	Context("UpdateStatus", func() {
		It("applies optional fields", func() {
			created, err := s.Job().Create(context.TODO(), model.NewJob("hello", "oromo", "http://cb.local/hook"), pendingCeiling)
			Expect(err).To(BeNil())

			started := time.Now().UTC()
			updated, err := s.Job().UpdateStatus(context.TODO(), created.ID, model.JobStatusProcessing, store.WithStartedAt(started))
			Expect(err).To(BeNil())
			Expect(updated.Status).To(Equal(model.JobStatusProcessing))
			Expect(updated.StartedAt).ToNot(BeNil())
			Expect(*updated.StartedAt).To(Equal(started))

			completed := time.Now().UTC()
			updated, err = s.Job().UpdateStatus(context.TODO(), created.ID, model.JobStatusCompleted,
				store.WithCompletedAt(completed),
				store.WithAudioURL("/v1/download/"+created.ID))
			Expect(err).To(BeNil())
			Expect(updated.Status).To(Equal(model.JobStatusCompleted))
			Expect(updated.CompletedAt).ToNot(BeNil())
			Expect(*updated.AudioURL).To(Equal("/v1/download/" + created.ID))
		})
	})

	Context("UpdateStatus transition gate", func() {
		It("refuses cancelling a processing job", func() {
			created, err := s.Job().Create(context.TODO(), model.NewJob("hello", "oromo", "http://cb.local/hook"), pendingCeiling)
			Expect(err).To(BeNil())

			_, err = s.Job().UpdateStatus(context.TODO(), created.ID, model.JobStatusProcessing)
			Expect(err).To(BeNil())

			_, err = s.Job().UpdateStatus(context.TODO(), created.ID, model.JobStatusCancelled)
			Expect(err).To(MatchError(store.ErrInvalidTransition))

			kept, err := s.Job().Get(context.TODO(), created.ID)
			Expect(err).To(BeNil())
			Expect(kept.Status).To(Equal(model.JobStatusProcessing))
		})

		It("refuses leaving a terminal status", func() {
			created, err := s.Job().Create(context.TODO(), model.NewJob("hello", "oromo", "http://cb.local/hook"), pendingCeiling)
			Expect(err).To(BeNil())

			_, err = s.Job().UpdateStatus(context.TODO(), created.ID, model.JobStatusCancelled)
			Expect(err).To(BeNil())

			for _, next := range []model.Status{model.JobStatusProcessing, model.JobStatusCompleted, model.JobStatusFailed} {
				_, err = s.Job().UpdateStatus(context.TODO(), created.ID, next)
				Expect(err).To(MatchError(store.ErrInvalidTransition))
			}

			kept, err := s.Job().Get(context.TODO(), created.ID)
			Expect(err).To(BeNil())
			Expect(kept.Status).To(Equal(model.JobStatusCancelled))
		})
	})

	Context("UpdateWebhookStatus", func() {
		It("records the delivery outcome", func() {
			created, err := s.Job().Create(context.TODO(), model.NewJob("hello", "oromo", "http://cb.local/hook"), pendingCeiling)
			Expect(err).To(BeNil())

			updated, err := s.Job().UpdateWebhookStatus(context.TODO(), created.ID, true, 2)
			Expect(err).To(BeNil())
			Expect(updated.WebhookDelivered).To(BeTrue())
			Expect(updated.WebhookAttempts).To(Equal(2))
		})
	})

	Context("Delete", func() {
		It("removes the record and its queue entry", func() {
			created, err := s.Job().Create(context.TODO(), model.NewJob("hello", "oromo", "http://cb.local/hook"), pendingCeiling)
			Expect(err).To(BeNil())

			Expect(s.Job().Delete(context.TODO(), created.ID)).To(BeTrue())
			Expect(s.Job().Count(context.TODO())).To(Equal(0))
			Expect(s.Queue().Len(context.TODO())).To(Equal(0))

			Expect(s.Job().Delete(context.TODO(), created.ID)).To(BeFalse())
		})
	})
})

var _ = Describe("work queue", func() {
	var s store.Store

	BeforeEach(func() {
		s = store.NewStore()
	})

	It("dequeues in FIFO order", func() {
		first, err := s.Job().Create(context.TODO(), model.NewJob("first", "oromo", "http://cb.local/hook"), pendingCeiling)
		Expect(err).To(BeNil())
		second, err := s.Job().Create(context.TODO(), model.NewJob("second", "oromo", "http://cb.local/hook"), pendingCeiling)
		Expect(err).To(BeNil())

		id, err := s.Queue().Dequeue(context.TODO())
		Expect(err).To(BeNil())
		Expect(id).To(Equal(first.ID))

		id, err = s.Queue().Dequeue(context.TODO())
		Expect(err).To(BeNil())
		Expect(id).To(Equal(second.ID))

		_, err = s.Queue().Dequeue(context.TODO())
		Expect(err).To(MatchError(store.ErrQueueEmpty))
	})

	It("removes a queue entry without touching the job record", func() {
		job, err := s.Job().Create(context.TODO(), model.NewJob("hello", "oromo", "http://cb.local/hook"), pendingCeiling)
		Expect(err).To(BeNil())

		Expect(s.Queue().Remove(context.TODO(), job.ID)).To(BeTrue())
		Expect(s.Queue().Len(context.TODO())).To(Equal(0))
		Expect(s.Queue().Remove(context.TODO(), job.ID)).To(BeFalse())

		kept, err := s.Job().Get(context.TODO(), job.ID)
		Expect(err).To(BeNil())
		Expect(kept.Status).To(Equal(model.JobStatusPending))
	})

	It("keeps dequeue independent of the record lifecycle", func() {
		job, err := s.Job().Create(context.TODO(), model.NewJob("hello", "oromo", "http://cb.local/hook"), pendingCeiling)
		Expect(err).To(BeNil())

		_, err = s.Job().UpdateStatus(context.TODO(), job.ID, model.JobStatusCancelled)
		Expect(err).To(BeNil())

		// the stale entry still surfaces; consumers skip cancelled jobs
		id, err := s.Queue().Dequeue(context.TODO())
		Expect(err).To(BeNil())
		Expect(id).To(Equal(job.ID))
	})
})
