package models

import (
	"fmt"
	"strings"
)

// BookingState selects bookings for listing. It is never persisted.
type BookingState string

const (
	StateAll      BookingState = "ALL"
	StateCurrent  BookingState = "CURRENT"
	StatePast     BookingState = "PAST"
	StateFuture   BookingState = "FUTURE"
	StateWaiting  BookingState = "WAITING"
	StateRejected BookingState = "REJECTED"
)

var bookingStates = []BookingState{StateAll, StateCurrent, StatePast, StateFuture, StateWaiting, StateRejected}

// ParseBookingState accepts any letter case. Empty input means ALL.
func ParseBookingState(raw string) (BookingState, error) {
	normalized := strings.ToUpper(strings.TrimSpace(raw))
	if normalized == "" {
		return StateAll, nil
	}
	for _, s := range bookingStates {
		if string(s) == normalized {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown state: %s", raw)
}
