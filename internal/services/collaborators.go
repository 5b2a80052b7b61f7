package services

import (
	"context"

	"github.com/tbourn/go-meeting-backend/internal/aggregate"
	"github.com/tbourn/go-meeting-backend/internal/domain"
	"github.com/tbourn/go-meeting-backend/internal/feed"
)

// Publisher receives committed row changes (feed.Hub).
type Publisher interface {
	Publish(ch feed.Change)
}

// Notifier delivers best-effort notifications (notify.Dispatcher). It must
// not block on delivery.
type Notifier interface {
	Notify(ctx context.Context, kind domain.NotificationKind, m *domain.Meeting, recipients ...string)
}

// Tallies resolves the live tally of a meeting (feed.Adapter).
type Tallies interface {
	Tally(ctx context.Context, meetingID string) (*aggregate.Tally, error)
}

type nopPublisher struct{}

func (nopPublisher) Publish(feed.Change) {}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, domain.NotificationKind, *domain.Meeting, ...string) {}

func publisherOrNop(p Publisher) Publisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}

func notifierOrNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}
