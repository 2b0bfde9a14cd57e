package service_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"teamline.app/pulse/internal/event"
	"teamline.app/pulse/internal/model"
	"teamline.app/pulse/internal/service"
	"teamline.app/pulse/internal/store"
)

var _ = Describe("MembershipService", func() {
	var (
		svc service.MembershipService
		f   *fixture
		ctx context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		f = newFixture()
		f.streams.getByIDFn = func(_ context.Context, id int64) (*model.Stream, error) {
			if id != 5 {
				return nil, store.ErrNotFound
			}
			s := privateStream(5, 1)
			s.Name = "incidents"
			return s, nil
		}
		svc = service.NewMembershipService(f.runner(), f.waker)
	})

	Describe("Add", func() {
		It("records the member and notifies them on their private room", func() {
			Expect(svc.Add(ctx, 1, 5, 9, 2, "Bea")).To(Succeed())

			Expect(f.members.added).To(HaveLen(1))
			Expect(f.members.added[0].UserID).To(Equal(int64(9)))
			Expect(f.members.added[0].AddedBy).To(Equal(int64(2)))

			Expect(f.outbox.types()).To(Equal([]string{"stream.member_added", "notification.created"}))
			n, ok := f.outbox.decoded(1).(*event.NotificationCreated)
			Expect(ok).To(BeTrue())
			Expect(n.UserID).To(Equal(int64(9)))
			Expect(n.NotificationType).To(Equal("stream_added"))
			Expect(n.Preview).To(Equal("incidents"))
			// Nothing anchors a membership notification to a stream event.
			Expect(n.EventID).To(BeNil())
			Expect(f.waker.wakes).To(Equal(1))
		})

		It("skips the notification on self-join", func() {
			Expect(svc.Add(ctx, 1, 5, 9, 9, "Ada")).To(Succeed())

			Expect(f.outbox.types()).To(Equal([]string{"stream.member_added"}))
			Expect(f.notifications.created).To(BeEmpty())
		})

		It("is a no-op for existing members", func() {
			f.members.isMemberFn = func(context.Context, int64, int64) (bool, error) {
				return true, nil
			}

			Expect(svc.Add(ctx, 1, 5, 9, 2, "Bea")).To(Succeed())
			Expect(f.members.added).To(BeEmpty())
			Expect(f.outbox.entries).To(BeEmpty())
		})

		It("rejects streams outside the workspace", func() {
			Expect(svc.Add(ctx, 2, 5, 9, 2, "Bea")).To(MatchError(service.ErrStreamNotFound))
		})
	})

	Describe("Remove", func() {
		It("removes the member and publishes to their private room", func() {
			Expect(svc.Remove(ctx, 1, 5, 9, 2)).To(Succeed())

			Expect(f.members.removed).To(Equal([][2]int64{{5, 9}}))
			removed, ok := f.outbox.decoded(0).(*event.StreamMemberRemoved)
			Expect(ok).To(BeTrue())
			Expect(removed.UserID).To(Equal(int64(9)))
			Expect(removed.ActorID).To(Equal(int64(2)))
		})
	})
})
