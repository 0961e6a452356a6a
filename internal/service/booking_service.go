package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shareit/internal/clock"
	"shareit/internal/domain"
	"shareit/internal/events"
	"shareit/internal/metrics"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

type BookingService struct {
	repo     domain.Repository
	locks    domain.LockRepository
	eventBus domain.EventPublisher
	clock    clock.Clock
	lockTTL  time.Duration
	logger   *zerolog.Logger
}

func NewBookingService(repo domain.Repository, locks domain.LockRepository, eventBus domain.EventPublisher, clk clock.Clock, lockTTL time.Duration, logger *zerolog.Logger) *BookingService {
	if lockTTL <= 0 {
		lockTTL = models.DefaultDecisionLockTTL * time.Second
	}
	if clk == nil {
		clk = clock.NewSystem()
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &BookingService{
		repo:     repo,
		locks:    locks,
		eventBus: eventBus,
		clock:    clk,
		lockTTL:  lockTTL,
		logger:   logger,
	}
}

func (s *BookingService) CreateBooking(ctx context.Context, requesterID, itemID int64, start, end time.Time) (view *models.BookingView, err error) {
	defer func() { metrics.ObserveBooking("create", domain.Class(err)) }()

	booker, err := s.repo.GetUserByID(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	item, err := s.repo.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if err := ValidateBooking(requesterID, item, start, end); err != nil {
		return nil, err
	}

	booking := &models.Booking{
		ItemID:   item.ID,
		BookerID: booker.ID,
		Start:    start,
		End:      end,
		Status:   models.StatusWaiting,
	}
	if err := s.repo.CreateBooking(ctx, booking); err != nil {
		return nil, err
	}
	booking.ItemName = item.Name
	booking.OwnerID = item.OwnerID
	booking.BookerName = booker.Name

	s.logger.Info().
		Int64("booking_id", booking.ID).
		Int64("item_id", item.ID).
		Int64("booker_id", booker.ID).
		Msg("booking created")
	s.publishEvent(events.EventBookingCreated, booking, requesterID)

	v := models.NewBookingView(booking)
	return &v, nil
}

// ConfirmBooking records the owner's decision. The decision is taken under a
// per-booking lock and written only if the booking is still WAITING at the
// version that was read.
func (s *BookingService) ConfirmBooking(ctx context.Context, actingUserID, bookingID int64, approve *bool) (view *models.BookingView, err error) {
	defer func() { metrics.ObserveBooking("confirm", domain.Class(err)) }()

	if approve == nil {
		return nil, fmt.Errorf("%w: booking %d", domain.ErrApprovalRequired, bookingID)
	}
	if _, err := s.repo.GetUserByID(ctx, actingUserID); err != nil {
		return nil, err
	}
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.OwnerID != actingUserID {
		return nil, fmt.Errorf("%w: user %d, booking %d", domain.ErrNotOwner, actingUserID, bookingID)
	}
	if booking.Status != models.StatusWaiting {
		return nil, alreadyDecided(booking)
	}

	lockKey := fmt.Sprintf("booking:%d:decision", bookingID)
	token, acquired, err := s.locks.AcquireLock(ctx, lockKey, s.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire decision lock: %w", err)
	}
	if !acquired {
		return nil, fmt.Errorf("%w: booking %d is being decided", domain.ErrConcurrentModification, bookingID)
	}
	defer func() {
		if err := s.locks.ReleaseLock(context.WithoutCancel(ctx), lockKey, token); err != nil {
			s.logger.Warn().Err(err).Int64("booking_id", bookingID).Msg("release decision lock")
		}
	}()

	// Another confirm may have finished between the first read and the lock.
	booking, err = s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != models.StatusWaiting {
		return nil, alreadyDecided(booking)
	}

	status := models.StatusRejected
	if *approve {
		status = models.StatusApproved
	}
	err = s.repo.UpdateBookingStatusWithVersion(ctx, booking.ID, booking.Version, status)
	if errors.Is(err, domain.ErrConcurrentModification) {
		return nil, fmt.Errorf("%w: booking %d", domain.ErrAlreadyDecided, bookingID)
	}
	if err != nil {
		return nil, err
	}
	booking.Status = status
	booking.Version++

	s.logger.Info().
		Int64("booking_id", booking.ID).
		Int64("owner_id", actingUserID).
		Str("status", string(status)).
		Msg("booking decided")

	eventType := events.EventBookingRejected
	if status == models.StatusApproved {
		eventType = events.EventBookingApproved
	}
	s.publishEvent(eventType, booking, actingUserID)

	v := models.NewBookingView(booking)
	return &v, nil
}

func alreadyDecided(b *models.Booking) error {
	return fmt.Errorf("%w: booking %d is %s", domain.ErrAlreadyDecided, b.ID, b.Status)
}

func (s *BookingService) GetBooking(ctx context.Context, actingUserID, bookingID int64) (*models.BookingView, error) {
	if _, err := s.repo.GetUserByID(ctx, actingUserID); err != nil {
		return nil, err
	}
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !booking.IsParticipant(actingUserID) {
		return nil, fmt.Errorf("%w: user %d, booking %d", domain.ErrAccessDenied, actingUserID, bookingID)
	}
	v := models.NewBookingView(booking)
	return &v, nil
}

func (s *BookingService) ListForBooker(ctx context.Context, userID int64, state string) ([]models.BookingView, error) {
	return s.list(ctx, userID, state, s.repo.GetBookingsByBooker)
}

func (s *BookingService) ListForOwner(ctx context.Context, userID int64, state string) ([]models.BookingView, error) {
	return s.list(ctx, userID, state, s.repo.GetBookingsByOwner)
}

type bookingQuery func(ctx context.Context, userID int64, filter models.BookingFilter) ([]*models.Booking, error)

func (s *BookingService) list(ctx context.Context, userID int64, state string, query bookingQuery) ([]models.BookingView, error) {
	if _, err := s.repo.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	parsed, err := models.ParseBookingState(state)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownState, state)
	}
	filter, err := FilterForState(parsed, s.clock.Now())
	if err != nil {
		return nil, err
	}

	bookings, err := query(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	views := make([]models.BookingView, 0, len(bookings))
	for _, b := range bookings {
		views = append(views, models.NewBookingView(b))
	}
	return views, nil
}

// FilterForState maps a listing state to a store filter evaluated at now.
func FilterForState(state models.BookingState, now time.Time) (models.BookingFilter, error) {
	switch state {
	case models.StateAll:
		return models.BookingFilter{}, nil
	case models.StateWaiting:
		return models.BookingFilter{Status: models.StatusWaiting}, nil
	case models.StateRejected:
		return models.BookingFilter{Status: models.StatusRejected}, nil
	case models.StateCurrent:
		return models.BookingFilter{Window: models.WindowCurrent, At: now}, nil
	case models.StatePast:
		return models.BookingFilter{Window: models.WindowPast, At: now}, nil
	case models.StateFuture:
		return models.BookingFilter{Window: models.WindowFuture, At: now}, nil
	default:
		return models.BookingFilter{}, fmt.Errorf("%w: %s", domain.ErrUnknownState, state)
	}
}

func (s *BookingService) publishEvent(eventType string, booking *models.Booking, actorID int64) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID: booking.ID,
		ItemID:    booking.ItemID,
		ItemName:  booking.ItemName,
		BookerID:  booking.BookerID,
		OwnerID:   booking.OwnerID,
		Status:    string(booking.Status),
		Start:     booking.Start,
		End:       booking.End,
		ActorID:   actorID,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", booking.ID).Msg("publish event error")
	}
}
