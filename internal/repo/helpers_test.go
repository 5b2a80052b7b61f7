package repo

import (
	"fmt"
	"strings"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-meeting-backend/internal/domain"
)

func newTestDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()
	// Unique DB per test to avoid schema leaking across tests.
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

// newSchemaDB returns a fully migrated database.
func newSchemaDB(t *testing.T) *gorm.DB {
	t.Helper()
	db := newTestDB(t)
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func strp(s string) *string { return &s }

func seedMeeting(t *testing.T, db *gorm.DB, id, owner string) *domain.Meeting {
	t.Helper()
	m := &domain.Meeting{ID: id, OwnerID: owner, Title: "Meeting " + id, Duration: 30}
	if err := db.Create(m).Error; err != nil {
		t.Fatalf("seed meeting: %v", err)
	}
	return m
}

func seedParticipant(t *testing.T, db *gorm.DB, id, meetingID string, userID *string, created time.Time) *domain.Participant {
	t.Helper()
	p := &domain.Participant{ID: id, MeetingID: meetingID, UserID: userID, CreatedAt: created}
	if userID == nil {
		p.GuestName = strp("guest-" + id)
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("seed participant: %v", err)
	}
	return p
}
