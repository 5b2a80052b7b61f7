package domain

import (
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-meeting-backend/internal/slot"
)

func newDomainDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:domain_models?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// One connection so the FK pragma applies to every statement.
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	// Enforce FKs so cascades actually execute.
	db.Exec("PRAGMA foreign_keys=ON;")
	return db
}

func strptr(s string) *string { return &s }

func TestTableNames(t *testing.T) {
	cases := map[string]string{
		(Meeting{}).TableName():      "meetings",
		(Participant{}).TableName():  "participants",
		(Availability{}).TableName(): "availability",
		(Notification{}).TableName(): "notifications",
		(Idempotency{}).TableName():  "idempotency",
	}
	for got, want := range cases {
		if got != want {
			t.Fatalf("TableName() = %q; want %q", got, want)
		}
	}
}

func TestMigrations_Indexes_JSONColumns_AndCascades(t *testing.T) {
	db := newDomainDB(t)

	if err := db.AutoMigrate(&Meeting{}, &Participant{}, &Availability{}, &Notification{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	m := db.Migrator()

	for _, idx := range []struct {
		model any
		name  string
	}{
		{&Meeting{}, "idx_owner_meetings"},
		{&Participant{}, "ux_participant_user"},
		{&Participant{}, "ux_participant_guest"},
		{&Notification{}, "idx_user_notifications"},
	} {
		if !m.HasIndex(idx.model, idx.name) {
			t.Fatalf("expected index %s on %T", idx.name, idx.model)
		}
	}

	now := time.Now().UTC()
	win := &slot.Window{Start: 9 * 60, End: 17 * 60}
	mt := &Meeting{
		ID: "m1", OwnerID: "owner", Title: "Standup", Duration: 30,
		Constraints: MeetingConstraints{DailyWindow: win},
		Status:      StatusCollecting, CreatedAt: now, UpdatedAt: now,
	}
	if err := db.Create(mt).Error; err != nil {
		t.Fatalf("insert meeting: %v", err)
	}

	p := &Participant{ID: "p1", MeetingID: "m1", UserID: strptr("u1"), CreatedAt: now}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("insert participant: %v", err)
	}
	dup := &Participant{ID: "p2", MeetingID: "m1", UserID: strptr("u1"), CreatedAt: now}
	if err := db.Create(dup).Error; err == nil {
		t.Fatalf("expected unique violation for second (meeting,user) participant")
	}

	k := slot.KeyOf(time.Date(2025, 1, 15, 9, 15, 0, 0, time.UTC))
	av := &Availability{
		ID: "a1", ParticipantID: "p1", Slots: slot.NewSet(k),
		Constraints: map[string]any{"note": "mornings"}, Version: 1,
	}
	if err := db.Create(av).Error; err != nil {
		t.Fatalf("insert availability: %v", err)
	}

	var gotM Meeting
	if err := db.First(&gotM, "id = ?", "m1").Error; err != nil {
		t.Fatalf("load meeting: %v", err)
	}
	if gotM.Constraints.DailyWindow == nil || *gotM.Constraints.DailyWindow != *win {
		t.Fatalf("constraints did not round-trip: %+v", gotM.Constraints)
	}

	var gotA Availability
	if err := db.First(&gotA, "id = ?", "a1").Error; err != nil {
		t.Fatalf("load availability: %v", err)
	}
	if !gotA.Slots.Equal(av.Slots) || gotA.Constraints["note"] != "mornings" {
		t.Fatalf("availability did not round-trip: %+v", gotA)
	}
	if !gotA.Live() {
		t.Fatalf("fresh record must be live")
	}

	// Deleting the meeting cascades to participants and availability.
	if err := db.Exec("DELETE FROM meetings WHERE id = ?", "m1").Error; err != nil {
		t.Fatalf("delete meeting: %v", err)
	}
	var n int64
	db.Unscoped().Model(&Availability{}).Count(&n)
	if n != 0 {
		t.Fatalf("expected availability cascade, %d rows left", n)
	}
}

func TestMeeting_SlotFilter(t *testing.T) {
	start := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	m := &Meeting{
		StartDate:   &start,
		EndDate:     &start,
		Constraints: MeetingConstraints{DailyWindow: &slot.Window{Start: 9 * 60, End: 10 * 60}},
	}
	f := m.SlotFilter()
	in := slot.KeyOf(time.Date(2025, 1, 15, 9, 30, 0, 0, time.UTC))
	nextDay := slot.KeyOf(time.Date(2025, 1, 16, 9, 30, 0, 0, time.UTC))
	late := slot.KeyOf(time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC))
	if !f.Allows(in) || f.Allows(nextDay) || f.Allows(late) {
		t.Fatalf("unexpected filter behaviour")
	}
}

func TestParticipant_IsGuest(t *testing.T) {
	if !(&Participant{GuestName: strptr("Ada")}).IsGuest() {
		t.Fatal("guest participant not detected")
	}
	if (&Participant{UserID: strptr("u1")}).IsGuest() {
		t.Fatal("user participant reported as guest")
	}
}
