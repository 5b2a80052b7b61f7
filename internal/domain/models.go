// Package domain defines the persistence models for meetings, participants,
// availability records, and notifications. These types are mapped with GORM
// and form the core data layer of the scheduling service.
package domain

import (
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-meeting-backend/internal/slot"
)

// MeetingStatus is the lifecycle state of a meeting.
type MeetingStatus string

const (
	// StatusCollecting is the initial state: availability submissions are accepted.
	StatusCollecting MeetingStatus = "collecting"
	// StatusScheduled is terminal: a slot has been chosen.
	StatusScheduled MeetingStatus = "scheduled"
	// StatusCancelled is terminal: the organizer abandoned the meeting.
	StatusCancelled MeetingStatus = "cancelled"
)

// MeetingConstraints holds organizer-defined scheduling rules.
type MeetingConstraints struct {
	// DailyWindow restricts eligible slots to a time-of-day range (UTC minutes).
	DailyWindow *slot.Window `json:"daily_window,omitempty"`
}

// Meeting is a proposed meeting collecting availability from participants.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - OwnerID: identity of the organizer; only the owner may finalize or cancel.
//   - Title / Description: display text.
//   - Duration: meeting length in minutes.
//   - StartDate / EndDate: optional inclusive calendar-day bounds (00:00 UTC).
//   - Constraints: JSON-encoded MeetingConstraints.
//   - Status: collecting | scheduled | cancelled.
//   - ChosenSlot: set iff Status is scheduled.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type Meeting struct {
	ID          string             `json:"id"           gorm:"type:char(36);primaryKey"`
	OwnerID     string             `json:"owner_id"     gorm:"type:varchar(64);not null;index:idx_owner_meetings"`
	Title       string             `json:"title"        gorm:"type:varchar(255);not null"`
	Description string             `json:"description"  gorm:"type:text;not null;default:''"`
	Duration    int                `json:"duration"     gorm:"not null;check:duration > 0"`
	StartDate   *time.Time         `json:"start_date,omitempty"`
	EndDate     *time.Time         `json:"end_date,omitempty"`
	Constraints MeetingConstraints `json:"constraints"  gorm:"type:text;not null;serializer:json"`
	Status      MeetingStatus      `json:"status"       gorm:"type:varchar(16);not null;default:'collecting';check:status IN ('collecting','scheduled','cancelled')"`
	ChosenSlot  *slot.Key          `json:"chosen_slot,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"   gorm:"index:idx_owner_meetings"`
}

// TableName returns the database table name for Meeting.
func (Meeting) TableName() string { return "meetings" }

// SlotFilter returns the eligibility filter derived from the meeting's daily
// window and date bounds.
func (m *Meeting) SlotFilter() slot.Filter {
	nb, na := slot.DateBounds(m.StartDate, m.EndDate)
	return slot.Filter{Window: m.Constraints.DailyWindow, NotBefore: nb, NotAfter: na}
}

// Participant is a person responding to a meeting: either an authenticated
// user (UserID) or a guest identified by display name (GuestName). Exactly one
// of the two is set; uniqueness is enforced per meeting for each.
type Participant struct {
	ID        string    `json:"id"                   gorm:"type:char(36);primaryKey"`
	MeetingID string    `json:"meeting_id"           gorm:"type:char(36);not null;index;uniqueIndex:ux_participant_user,priority:1;uniqueIndex:ux_participant_guest,priority:1"`
	UserID    *string   `json:"user_id,omitempty"    gorm:"type:varchar(64);uniqueIndex:ux_participant_user,priority:2"`
	GuestName *string   `json:"guest_name,omitempty" gorm:"type:varchar(120);uniqueIndex:ux_participant_guest,priority:2"`
	CreatedAt time.Time `json:"created_at"`

	// Meeting is the parent meeting.
	Meeting Meeting `json:"-" gorm:"foreignKey:MeetingID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Participant.
func (Participant) TableName() string { return "participants" }

// IsGuest reports whether the participant joined without an authenticated identity.
func (p *Participant) IsGuest() bool { return p.UserID == nil }

// Availability is a participant's submitted slot set. It is replaced
// wholesale on every submission. An empty Slots set means "responded, nothing
// works", which is distinct from having no row at all.
//
// Version increases by one on every write for the participant (including
// withdrawals) so change consumers can order and deduplicate events.
// Withdrawals are soft deletes; the tombstone keeps the version sequence.
type Availability struct {
	ID            string         `json:"id"             gorm:"type:char(36);primaryKey"`
	ParticipantID string         `json:"participant_id" gorm:"type:char(36);not null;uniqueIndex"`
	Slots         slot.Set       `json:"slots"          gorm:"type:text;not null;serializer:json"`
	Constraints   map[string]any `json:"constraints"    gorm:"type:text;not null;serializer:json"`
	Version       int64          `json:"version"        gorm:"not null;default:1"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-"              gorm:"index"`

	// Participant is the owning participant.
	Participant Participant `json:"-" gorm:"foreignKey:ParticipantID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Availability.
func (Availability) TableName() string { return "availability" }

// Live reports whether the record is present (not withdrawn).
func (a *Availability) Live() bool { return a != nil && !a.DeletedAt.Valid }

// NotificationKind classifies notifications.
type NotificationKind string

const (
	NotifyMeetingCreated      NotificationKind = "meeting_created"
	NotifyAvailabilityUpdated NotificationKind = "availability_updated"
	NotifyMeetingScheduled    NotificationKind = "meeting_scheduled"
	NotifyMeetingCancelled    NotificationKind = "meeting_cancelled"
)

// Notification is a fire-and-forget message for a user about a meeting.
type Notification struct {
	ID        string           `json:"id"         gorm:"type:char(36);primaryKey"`
	UserID    string           `json:"user_id"    gorm:"type:varchar(64);not null;index:idx_user_notifications,priority:1"`
	MeetingID string           `json:"meeting_id" gorm:"type:char(36);not null;index"`
	Kind      NotificationKind `json:"kind"       gorm:"type:varchar(32);not null"`
	Title     string           `json:"title"      gorm:"type:varchar(255);not null"`
	Message   string           `json:"message"    gorm:"type:text;not null"`
	Read      bool             `json:"read"       gorm:"not null;default:false"`
	CreatedAt time.Time        `json:"created_at" gorm:"index:idx_user_notifications,priority:2"`
}

// TableName returns the database table name for Notification.
func (Notification) TableName() string { return "notifications" }
