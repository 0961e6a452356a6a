package service

import (
	"fmt"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"
)

// ValidateBooking checks the creation preconditions in order; the first failure wins.
// Overlapping bookings are allowed.
func ValidateBooking(requesterID int64, item *models.Item, start, end time.Time) error {
	if !item.Available {
		return fmt.Errorf("%w: item %d", domain.ErrItemUnavailable, item.ID)
	}
	if requesterID == item.OwnerID {
		return fmt.Errorf("%w: user %d owns item %d", domain.ErrSelfBooking, requesterID, item.ID)
	}
	if !start.Before(end) {
		return fmt.Errorf("%w: start %s, end %s", domain.ErrInvalidTimeRange,
			start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return nil
}
