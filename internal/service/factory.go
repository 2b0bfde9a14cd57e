package service

import (
	"teamline.app/pulse/internal/outbox"
)

type Services struct {
	txRunner TxRunner
	waker    outbox.Waker
}

func NewServices(txRunner TxRunner, waker outbox.Waker) *Services {
	return &Services{
		txRunner: txRunner,
		waker:    waker,
	}
}

func (s *Services) Messages() MessageService {
	return NewMessageService(s.txRunner, s.waker)
}

func (s *Services) Streams() StreamService {
	return NewStreamService(s.txRunner, s.waker)
}

func (s *Services) Memberships() MembershipService {
	return NewMembershipService(s.txRunner, s.waker)
}

func (s *Services) ReadCursors() ReadCursorService {
	return NewReadCursorService(s.txRunner, s.waker)
}
