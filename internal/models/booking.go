package models

import "time"

type Booking struct {
	ID        int64         `json:"id"`
	ItemID    int64         `json:"item_id"`
	BookerID  int64         `json:"booker_id"`
	Start     time.Time     `json:"start"`
	End       time.Time     `json:"end"`
	Status    BookingStatus `json:"status"`
	Version   int64         `json:"version"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`

	// Filled by joins on read.
	ItemName   string `json:"item_name,omitempty"`
	OwnerID    int64  `json:"owner_id,omitempty"`
	BookerName string `json:"booker_name,omitempty"`
}

// IsParticipant reports whether userID is the booker or the item owner.
func (b *Booking) IsParticipant(userID int64) bool {
	return b.BookerID == userID || b.OwnerID == userID
}

// BookingFilter narrows a booker or owner listing. Zero value matches everything.
type BookingFilter struct {
	Status BookingStatus
	Window TimeWindow
	At     time.Time
}

type TimeWindow int

const (
	WindowAny TimeWindow = iota
	WindowCurrent
	WindowPast
	WindowFuture
)

// Contains reports whether b falls into the window relative to at.
// CURRENT is start <= at <= end, PAST is end < at, FUTURE is start > at.
// A booking is completed only once its end is strictly before at, the same
// cut used for last bookings and comment eligibility.
func (w TimeWindow) Contains(b *Booking, at time.Time) bool {
	switch w {
	case WindowCurrent:
		return !b.Start.After(at) && !b.End.Before(at)
	case WindowPast:
		return b.End.Before(at)
	case WindowFuture:
		return b.Start.After(at)
	default:
		return true
	}
}
