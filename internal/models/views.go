package models

import "time"

type ItemRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type UserRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// BookingView is what callers of the booking API receive.
type BookingView struct {
	ID     int64         `json:"id"`
	Start  time.Time     `json:"start"`
	End    time.Time     `json:"end"`
	Status BookingStatus `json:"status"`
	Item   ItemRef       `json:"item"`
	Booker UserRef       `json:"booker"`
}

// BookingShort is attached to an item view as last/next booking.
type BookingShort struct {
	ID       int64     `json:"id"`
	BookerID int64     `json:"booker_id"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
}

type CommentView struct {
	ID         int64     `json:"id"`
	Text       string    `json:"text"`
	AuthorName string    `json:"author_name"`
	Created    time.Time `json:"created"`
	ItemID     int64     `json:"item_id"`
}

type ItemView struct {
	ID          int64         `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Available   bool          `json:"available"`
	OwnerID     int64         `json:"owner_id"`
	RequestID   *int64        `json:"request_id,omitempty"`
	LastBooking *BookingShort `json:"last_booking"`
	NextBooking *BookingShort `json:"next_booking"`
	Comments    []CommentView `json:"comments"`
}

func NewBookingView(b *Booking) BookingView {
	return BookingView{
		ID:     b.ID,
		Start:  b.Start,
		End:    b.End,
		Status: b.Status,
		Item:   ItemRef{ID: b.ItemID, Name: b.ItemName},
		Booker: UserRef{ID: b.BookerID, Name: b.BookerName},
	}
}

func NewBookingShort(b *Booking) *BookingShort {
	if b == nil {
		return nil
	}
	return &BookingShort{ID: b.ID, BookerID: b.BookerID, Start: b.Start, End: b.End}
}

func NewCommentView(c *Comment) CommentView {
	return CommentView{
		ID:         c.ID,
		Text:       c.Text,
		AuthorName: c.AuthorName,
		Created:    c.Created,
		ItemID:     c.ItemID,
	}
}
