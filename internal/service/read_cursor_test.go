package service_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"teamline.app/pulse/internal/event"
	"teamline.app/pulse/internal/model"
	"teamline.app/pulse/internal/service"
)

var _ = Describe("ReadCursorService", func() {
	var (
		svc service.ReadCursorService
		f   *fixture
		ctx context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		f = newFixture()
		svc = service.NewReadCursorService(f.runner(), f.waker)
	})

	Describe("MarkRead", func() {
		It("publishes the new position when the cursor advances", func() {
			Expect(svc.MarkRead(ctx, 1, 9, 5, 501)).To(Succeed())

			cursor, ok := f.outbox.decoded(0).(*event.ReadCursorUpdated)
			Expect(ok).To(BeTrue())
			Expect(cursor.UserID).To(Equal(int64(9)))
			Expect(cursor.StreamID).To(Equal(int64(5)))
			Expect(cursor.EventID).To(Equal(int64(501)))
			Expect(f.waker.wakes).To(Equal(1))
		})

		It("stays silent when the position is behind the stored cursor", func() {
			f.cursors.advanceFn = func(_ context.Context, cursor *model.ReadCursor) (bool, error) {
				Expect(cursor.LastReadEventID).To(Equal(int64(100)))
				return false, nil
			}

			Expect(svc.MarkRead(ctx, 1, 9, 5, 100)).To(Succeed())
			Expect(f.outbox.entries).To(BeEmpty())
			Expect(f.waker.wakes).To(BeZero())
		})
	})

	Describe("MarkUnread", func() {
		It("moves the cursor backward and always publishes", func() {
			Expect(svc.MarkUnread(ctx, 1, 9, 5, 100)).To(Succeed())

			Expect(f.cursors.set).To(HaveLen(1))
			Expect(f.cursors.set[0].LastReadEventID).To(Equal(int64(100)))

			cursor, ok := f.outbox.decoded(0).(*event.ReadCursorUpdated)
			Expect(ok).To(BeTrue())
			Expect(cursor.EventID).To(Equal(int64(100)))
			Expect(f.waker.wakes).To(Equal(1))
		})
	})
})
