package models

type BookingStatus string

const (
	StatusWaiting  BookingStatus = "WAITING"
	StatusApproved BookingStatus = "APPROVED"
	StatusRejected BookingStatus = "REJECTED"
)

func (s BookingStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

func (s BookingStatus) Valid() bool {
	switch s {
	case StatusWaiting, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Header carrying the acting user id on every HTTP request.
const HeaderUserID = "X-Sharer-User-Id"

const (
	// DefaultDecisionLockTTL bounds how long a confirm may hold the per-booking lock.
	DefaultDecisionLockTTL = 10 // seconds

	// DefaultWriteRateLimit writes per user per window.
	DefaultWriteRateLimit = 30

	// DefaultWriteRateWindow in seconds.
	DefaultWriteRateWindow = 60
)
