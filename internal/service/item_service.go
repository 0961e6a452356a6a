package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"shareit/internal/clock"
	"shareit/internal/domain"
	"shareit/internal/events"
	"shareit/internal/metrics"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

// ItemService owns item views. It reads bookings straight from the store and
// never goes through BookingService.
type ItemService struct {
	repo     domain.Repository
	eventBus domain.EventPublisher
	clock    clock.Clock
	logger   *zerolog.Logger
}

func NewItemService(repo domain.Repository, eventBus domain.EventPublisher, clk clock.Clock, logger *zerolog.Logger) *ItemService {
	if clk == nil {
		clk = clock.NewSystem()
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &ItemService{
		repo:     repo,
		eventBus: eventBus,
		clock:    clk,
		logger:   logger,
	}
}

func (s *ItemService) CreateItem(ctx context.Context, ownerID int64, item *models.Item) (*models.Item, error) {
	if _, err := s.repo.GetUserByID(ctx, ownerID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(item.Name) == "" {
		return nil, fmt.Errorf("%w: item name is required", domain.ErrValidation)
	}
	if strings.TrimSpace(item.Description) == "" {
		return nil, fmt.Errorf("%w: item description is required", domain.ErrValidation)
	}

	item.ID = 0
	item.OwnerID = ownerID
	if err := s.repo.CreateItem(ctx, item); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("item_id", item.ID).Int64("owner_id", ownerID).Msg("item created")
	return item, nil
}

// UpdateItem applies a partial update. Only the owner may edit an item.
func (s *ItemService) UpdateItem(ctx context.Context, ownerID, itemID int64, patch models.ItemPatch) (*models.Item, error) {
	if _, err := s.repo.GetUserByID(ctx, ownerID); err != nil {
		return nil, err
	}
	item, err := s.repo.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.OwnerID != ownerID {
		return nil, fmt.Errorf("%w: user %d does not own item %d", domain.ErrForbidden, ownerID, itemID)
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, fmt.Errorf("%w: item name must not be blank", domain.ErrValidation)
	}
	if patch.Description != nil && strings.TrimSpace(*patch.Description) == "" {
		return nil, fmt.Errorf("%w: item description must not be blank", domain.ErrValidation)
	}

	patch.Apply(item)
	if err := s.repo.UpdateItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// GetItem returns the item with its comments. Last and next bookings are only
// attached when the viewer owns the item.
func (s *ItemService) GetItem(ctx context.Context, viewerID, itemID int64) (*models.ItemView, error) {
	if _, err := s.repo.GetUserByID(ctx, viewerID); err != nil {
		return nil, err
	}
	item, err := s.repo.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return s.EnrichOne(ctx, item, s.clock.Now(), item.OwnerID == viewerID)
}

func (s *ItemService) ListOwnerItems(ctx context.Context, ownerID int64) ([]models.ItemView, error) {
	if _, err := s.repo.GetUserByID(ctx, ownerID); err != nil {
		return nil, err
	}
	items, err := s.repo.GetItemsByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return s.EnrichMany(ctx, items, s.clock.Now())
}

// SearchItems returns available items whose name or description contains
// text, ignoring case. Blank text matches nothing.
func (s *ItemService) SearchItems(ctx context.Context, text string) ([]*models.Item, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return []*models.Item{}, nil
	}
	items, err := s.repo.SearchAvailableItems(ctx, text)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*models.Item{}
	}
	return items, nil
}

// EnrichOne builds the view of a single item with two targeted booking queries.
func (s *ItemService) EnrichOne(ctx context.Context, item *models.Item, now time.Time, withBookings bool) (*models.ItemView, error) {
	defer metrics.ObserveEnrichment("one", time.Now())

	view := newItemView(item)
	if withBookings {
		last, err := s.repo.GetLastApprovedBooking(ctx, item.ID, now)
		if err != nil {
			return nil, err
		}
		next, err := s.repo.GetNextApprovedBooking(ctx, item.ID, now)
		if err != nil {
			return nil, err
		}
		view.LastBooking = models.NewBookingShort(last)
		view.NextBooking = models.NewBookingShort(next)
	}

	comments, err := s.repo.GetCommentsByItem(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	for _, c := range comments {
		view.Comments = append(view.Comments, models.NewCommentView(c))
	}
	return &view, nil
}

// EnrichMany builds views for all items with one booking query and one comment
// query regardless of how many items there are. Output keeps the input order.
func (s *ItemService) EnrichMany(ctx context.Context, items []*models.Item, now time.Time) ([]models.ItemView, error) {
	defer metrics.ObserveEnrichment("many", time.Now())

	views := make([]models.ItemView, 0, len(items))
	if len(items) == 0 {
		return views, nil
	}

	ids := make([]int64, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}

	bookings, err := s.repo.GetApprovedBookingsForItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	bookingsByItem := make(map[int64][]*models.Booking, len(items))
	for _, b := range bookings {
		bookingsByItem[b.ItemID] = append(bookingsByItem[b.ItemID], b)
	}

	comments, err := s.repo.GetCommentsByItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	commentsByItem := make(map[int64][]models.CommentView, len(items))
	for _, c := range comments {
		commentsByItem[c.ItemID] = append(commentsByItem[c.ItemID], models.NewCommentView(c))
	}

	for _, item := range items {
		view := newItemView(item)
		last, next := adjacentBookings(bookingsByItem[item.ID], now)
		view.LastBooking = models.NewBookingShort(last)
		view.NextBooking = models.NewBookingShort(next)
		if c, ok := commentsByItem[item.ID]; ok {
			view.Comments = c
		}
		views = append(views, view)
	}
	return views, nil
}

// adjacentBookings picks the last and next APPROVED bookings relative to now.
// last has the greatest end before now, next the smallest start after now.
// Ties go to the higher id for last and the lower id for next, so the result
// does not depend on input order.
func adjacentBookings(bookings []*models.Booking, now time.Time) (last, next *models.Booking) {
	for _, b := range bookings {
		if b.Status != models.StatusApproved {
			continue
		}
		if b.End.Before(now) {
			if last == nil || b.End.After(last.End) || (b.End.Equal(last.End) && b.ID > last.ID) {
				last = b
			}
		}
		if b.Start.After(now) {
			if next == nil || b.Start.Before(next.Start) || (b.Start.Equal(next.Start) && b.ID < next.ID) {
				next = b
			}
		}
	}
	return last, next
}

func newItemView(item *models.Item) models.ItemView {
	return models.ItemView{
		ID:          item.ID,
		Name:        item.Name,
		Description: item.Description,
		Available:   item.Available,
		OwnerID:     item.OwnerID,
		RequestID:   item.RequestID,
		Comments:    []models.CommentView{},
	}
}

// CreateComment lets a user comment on an item they have finished renting.
func (s *ItemService) CreateComment(ctx context.Context, authorID, itemID int64, text string) (*models.CommentView, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: comment text is required", domain.ErrValidation)
	}
	author, err := s.repo.GetUserByID(ctx, authorID)
	if err != nil {
		return nil, err
	}
	item, err := s.repo.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	eligible, err := s.repo.ExistsCompletedBooking(ctx, item.ID, author.ID, now)
	if err != nil {
		return nil, err
	}
	if !eligible {
		return nil, fmt.Errorf("%w: user %d, item %d", domain.ErrNoEligibleBooking, authorID, itemID)
	}

	comment := &models.Comment{
		Text:     text,
		ItemID:   item.ID,
		AuthorID: author.ID,
		Created:  now,
	}
	if err := s.repo.CreateComment(ctx, comment); err != nil {
		return nil, err
	}
	comment.AuthorName = author.Name

	if s.eventBus != nil {
		payload := events.CommentEventPayload{
			CommentID: comment.ID,
			ItemID:    comment.ItemID,
			AuthorID:  comment.AuthorID,
			Created:   comment.Created,
		}
		if err := s.eventBus.PublishJSON(events.EventCommentCreated, payload); err != nil {
			s.logger.Error().Err(err).Int64("comment_id", comment.ID).Msg("publish event error")
		}
	}

	view := models.NewCommentView(comment)
	return &view, nil
}
