package notify

import (
	"fmt"

	"github.com/tbourn/go-meeting-backend/internal/domain"
)

// Compose returns the title and message text for a notification about m.
func Compose(kind domain.NotificationKind, m *domain.Meeting) (title, message string) {
	switch kind {
	case domain.NotifyMeetingCreated:
		return "Meeting Created", fmt.Sprintf("You created %q", m.Title)
	case domain.NotifyAvailabilityUpdated:
		return "Availability Updated", fmt.Sprintf("A participant updated availability for %q", m.Title)
	case domain.NotifyMeetingScheduled:
		at := "an unknown time"
		if m.ChosenSlot != nil {
			at = m.ChosenSlot.String()
		}
		return "Meeting Scheduled", fmt.Sprintf("%q scheduled at %s", m.Title, at)
	case domain.NotifyMeetingCancelled:
		return "Meeting Cancelled", fmt.Sprintf("%q was cancelled", m.Title)
	default:
		return string(kind), m.Title
	}
}
