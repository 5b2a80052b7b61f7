package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-meeting-backend/internal/aggregate"
	"github.com/tbourn/go-meeting-backend/internal/domain"
	"github.com/tbourn/go-meeting-backend/internal/feed"
	"github.com/tbourn/go-meeting-backend/internal/repo"
	"github.com/tbourn/go-meeting-backend/internal/slot"
)

// newServiceDB opens a migrated in-memory database unique to the test. A
// single connection keeps concurrent tests from tripping SQLite's shared
// cache table locks.
func newServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB(): %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

type recordingPublisher struct {
	mu      sync.Mutex
	changes []feed.Change
}

func (p *recordingPublisher) Publish(ch feed.Change) {
	p.mu.Lock()
	p.changes = append(p.changes, ch)
	p.mu.Unlock()
}

func (p *recordingPublisher) all() []feed.Change {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]feed.Change(nil), p.changes...)
}

type notifyCall struct {
	kind       domain.NotificationKind
	meetingID  string
	recipients []string
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls []notifyCall
}

func (n *recordingNotifier) Notify(_ context.Context, kind domain.NotificationKind, m *domain.Meeting, recipients ...string) {
	n.mu.Lock()
	n.calls = append(n.calls, notifyCall{kind: kind, meetingID: m.ID, recipients: recipients})
	n.mu.Unlock()
}

func (n *recordingNotifier) kinds() []domain.NotificationKind {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]domain.NotificationKind, len(n.calls))
	for i, c := range n.calls {
		out[i] = c.kind
	}
	return out
}

// registryTallies serves tallies straight from a registry, loading them from
// the store on first use.
type registryTallies struct{ reg *aggregate.Registry }

func (r registryTallies) Tally(ctx context.Context, meetingID string) (*aggregate.Tally, error) {
	return r.reg.Get(ctx, meetingID)
}

func newRegistryTallies(db *gorm.DB) registryTallies {
	return registryTallies{reg: aggregate.NewRegistry(repo.Store{DB: db})}
}

func createMeeting(t *testing.T, db *gorm.DB, owner string, window *slot.Window) *domain.Meeting {
	t.Helper()
	m := &domain.Meeting{OwnerID: owner, Title: "Planning", Duration: 30}
	if window != nil {
		m.Constraints.DailyWindow = window
	}
	if err := repo.CreateMeeting(context.Background(), db, m); err != nil {
		t.Fatalf("create meeting: %v", err)
	}
	return m
}

func joinUser(t *testing.T, db *gorm.DB, meetingID, userID string) *domain.Participant {
	t.Helper()
	p, err := repo.CreateParticipant(context.Background(), db, meetingID, &userID, nil)
	if err != nil {
		t.Fatalf("create participant: %v", err)
	}
	return p
}

func joinGuest(t *testing.T, db *gorm.DB, meetingID, name string) *domain.Participant {
	t.Helper()
	p, err := repo.CreateParticipant(context.Background(), db, meetingID, nil, &name)
	if err != nil {
		t.Fatalf("create guest: %v", err)
	}
	return p
}

// at renders 2025-01-15 hh:mm UTC as slot text.
func at(hh, mm int) string {
	return time.Date(2025, 1, 15, hh, mm, 0, 0, time.UTC).Format(time.RFC3339)
}

func key(hh, mm int) slot.Key {
	return slot.KeyOf(time.Date(2025, 1, 15, hh, mm, 0, 0, time.UTC))
}
