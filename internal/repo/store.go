package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-meeting-backend/internal/aggregate"
	"github.com/tbourn/go-meeting-backend/internal/domain"
)

// Store binds the repository functions to one *gorm.DB so they can serve
// the aggregator (aggregate.Source), the change feed adapter
// (feed.Directory), and the notification dispatcher (notify.Writer).
type Store struct {
	DB *gorm.DB
}

// Records implements aggregate.Source.
func (s Store) Records(ctx context.Context, meetingID string) ([]aggregate.Record, error) {
	return ListRecords(ctx, s.DB, meetingID)
}

// ListRecords lists every availability record of the meeting, tombstones
// included, as aggregator records.
func ListRecords(ctx context.Context, db *gorm.DB, meetingID string) ([]aggregate.Record, error) {
	rows, err := ListAvailabilityForMeeting(ctx, db, meetingID, true)
	if err != nil {
		return nil, err
	}
	out := make([]aggregate.Record, 0, len(rows))
	for i := range rows {
		r := &rows[i]
		st := aggregate.Absent
		if r.Live() {
			st = aggregate.Present(r.Slots)
		}
		out = append(out, aggregate.Record{ParticipantID: r.ParticipantID, State: st, Version: r.Version})
	}
	return out, nil
}

// ParticipantIDs implements feed.Directory.
func (s Store) ParticipantIDs(ctx context.Context, meetingID string) ([]string, error) {
	return ListParticipantIDs(ctx, s.DB, meetingID)
}

// Meeting implements feed.Directory.
func (s Store) Meeting(ctx context.Context, meetingID string) (*domain.Meeting, error) {
	return GetMeeting(ctx, s.DB, meetingID)
}

// InsertNotifications implements notify.Writer.
func (s Store) InsertNotifications(ctx context.Context, batch []domain.Notification) (int64, error) {
	return InsertNotifications(ctx, s.DB, batch)
}
