package dispatcher_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"teamline.app/pulse/common/id"
	"teamline.app/pulse/internal/dispatcher"
	"teamline.app/pulse/internal/event"
	"teamline.app/pulse/internal/outbox"
)

var _ = BeforeSuite(func() {
	Expect(id.Init(1)).To(Succeed())
})

func seedMessage(ob *mockOutbox, eventID, streamID int64) {
	GinkgoHelper()
	_, err := outbox.Append(context.Background(), ob, event.StreamEventCreated{
		EventID:     eventID,
		StreamID:    streamID,
		WorkspaceID: 1,
		ActorID:     9,
		Kind:        "message",
		Content:     "hi",
	})
	Expect(err).NotTo(HaveOccurred())
}

var _ = Describe("Dispatcher", func() {
	var (
		ob        *mockOutbox
		cursor    *mockCursor
		publisher *mockPublisher
		d         *dispatcher.Dispatcher
		wake      chan struct{}
	)

	BeforeEach(func() {
		ob = &mockOutbox{}
		cursor = &mockCursor{}
		publisher = &mockPublisher{}
		wake = make(chan struct{}, 1)
		d = dispatcher.New(ob, cursor, publisher, wake, dispatcher.Config{
			CursorName:   "outbox",
			PollInterval: time.Hour, // poll disabled; tests drive drains directly or by wake
			BatchSize:    2,
		})
	})

	Describe("Drain", func() {
		It("publishes rows in commit order across batches and advances the offset", func() {
			seedMessage(ob, 101, 5)
			seedMessage(ob, 102, 5)
			seedMessage(ob, 103, 6)

			Expect(d.Drain(context.Background())).To(Succeed())

			Expect(publisher.count()).To(Equal(3))
			Expect(cursor.lastSeq()).To(Equal(int64(3)))

			var ids []int64
			for _, env := range publisher.published {
				decoded, err := env.Decode()
				Expect(err).NotTo(HaveOccurred())
				ids = append(ids, decoded.(*event.StreamEventCreated).EventID)
			}
			Expect(ids).To(Equal([]int64{101, 102, 103}))
		})

		It("does nothing when the outbox is fully drained", func() {
			Expect(d.Drain(context.Background())).To(Succeed())
			Expect(publisher.count()).To(BeZero())
			Expect(cursor.lastSeq()).To(BeZero())
		})

		It("stops at a publish failure without advancing past it", func() {
			seedMessage(ob, 101, 5)
			seedMessage(ob, 102, 5)

			calls := 0
			publisher.setFailOn(func(env event.Envelope) error {
				calls++
				if calls == 2 {
					return errors.New("relay unreachable")
				}
				return nil
			})

			Expect(d.Drain(context.Background())).NotTo(Succeed())
			Expect(cursor.lastSeq()).To(Equal(int64(1)))

			// Next drain resumes from the offset and delivers the failed row.
			publisher.setFailOn(nil)
			Expect(d.Drain(context.Background())).To(Succeed())
			Expect(publisher.count()).To(Equal(2))
			Expect(cursor.lastSeq()).To(Equal(int64(2)))
		})

		It("redelivers a row published before a crash-equivalent advance failure", func() {
			seedMessage(ob, 101, 5)
			cursor.failNextAdvance = true

			Expect(d.Drain(context.Background())).NotTo(Succeed())
			Expect(publisher.count()).To(Equal(1))
			Expect(cursor.lastSeq()).To(BeZero())

			// Replay duplicates the publish; consumers dedupe on event_id.
			Expect(d.Drain(context.Background())).To(Succeed())
			Expect(publisher.count()).To(Equal(2))
			Expect(publisher.publishedTypes()).To(Equal([]event.Type{
				event.TypeStreamEventCreated,
				event.TypeStreamEventCreated,
			}))
			Expect(cursor.lastSeq()).To(Equal(int64(1)))
		})
	})

	Describe("Run", func() {
		It("drains on a wake signal", func() {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			done := make(chan struct{})
			go func() {
				defer close(done)
				_ = d.Run(ctx)
			}()

			seedMessage(ob, 101, 5)
			wake <- struct{}{}

			Eventually(publisher.count).Should(Equal(1))

			cancel()
			Eventually(done).Should(BeClosed())
		})

		It("falls back to the poll interval when no wake arrives", func() {
			polling := dispatcher.New(ob, cursor, publisher, wake, dispatcher.Config{
				CursorName:   "outbox",
				PollInterval: 10 * time.Millisecond,
				BatchSize:    10,
			})

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			done := make(chan struct{})
			go func() {
				defer close(done)
				_ = polling.Run(ctx)
			}()

			seedMessage(ob, 101, 5)

			Eventually(publisher.count).Should(Equal(1))

			cancel()
			Eventually(done).Should(BeClosed())
		})
	})
})
