package aggregate

import (
	"sort"

	"github.com/tbourn/go-meeting-backend/internal/slot"
)

// BestSlot returns the slot with the highest count among those allowed by f.
// Ties go to the earliest instant so repeated calls on the same tally always
// agree. ok is false when no slot with a positive count passes the filter.
func BestSlot(counts map[slot.Key]int, f slot.Filter) (best slot.Key, count int, ok bool) {
	for k, n := range counts {
		if n <= 0 || !f.Allows(k) {
			continue
		}
		if !ok || n > count || (n == count && k < best) {
			best, count, ok = k, n, true
		}
	}
	return best, count, ok
}

// Ranked returns the eligible slots ordered by count (descending) then by
// instant, truncated to limit when limit > 0.
func Ranked(counts map[slot.Key]int, f slot.Filter, limit int) []SlotCount {
	out := make([]SlotCount, 0, len(counts))
	for k, n := range counts {
		if n > 0 && f.Allows(k) {
			out = append(out, SlotCount{Slot: k, Count: n})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Slot < out[j].Slot
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// SlotCount pairs a slot with its tally.
type SlotCount struct {
	Slot  slot.Key `json:"slot"`
	Count int      `json:"count"`
}
