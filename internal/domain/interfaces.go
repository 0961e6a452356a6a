package domain

import (
	"context"
	"time"

	"shareit/internal/models"
)

type UserRepository interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id int64) error
	ListUsers(ctx context.Context) ([]*models.User, error)
}

type ItemRepository interface {
	GetItemByID(ctx context.Context, id int64) (*models.Item, error)
	CreateItem(ctx context.Context, item *models.Item) error
	UpdateItem(ctx context.Context, item *models.Item) error
	GetItemsByOwner(ctx context.Context, ownerID int64) ([]*models.Item, error)
	SearchAvailableItems(ctx context.Context, text string) ([]*models.Item, error)
}

type BookingRepository interface {
	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	UpdateBookingStatusWithVersion(ctx context.Context, id, fromVersion int64, status models.BookingStatus) error
	GetBookingsByBooker(ctx context.Context, bookerID int64, filter models.BookingFilter) ([]*models.Booking, error)
	GetBookingsByOwner(ctx context.Context, ownerID int64, filter models.BookingFilter) ([]*models.Booking, error)
	GetApprovedBookingsForItems(ctx context.Context, itemIDs []int64) ([]*models.Booking, error)
	GetLastApprovedBooking(ctx context.Context, itemID int64, now time.Time) (*models.Booking, error)
	GetNextApprovedBooking(ctx context.Context, itemID int64, now time.Time) (*models.Booking, error)
	ExistsCompletedBooking(ctx context.Context, itemID, bookerID int64, before time.Time) (bool, error)
}

type CommentRepository interface {
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetCommentsByItem(ctx context.Context, itemID int64) ([]*models.Comment, error)
	GetCommentsByItems(ctx context.Context, itemIDs []int64) ([]*models.Comment, error)
}

// Repository is the full sqlite-backed store.
type Repository interface {
	UserRepository
	ItemRepository
	BookingRepository
	CommentRepository
}

// LockRepository hands out expiring locks. AcquireLock returns a token that
// identifies the holder; ReleaseLock is a no-op unless the token still owns the key.
type LockRepository interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	ReleaseLock(ctx context.Context, key, token string) error
	CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type BookingService interface {
	CreateBooking(ctx context.Context, requesterID, itemID int64, start, end time.Time) (*models.BookingView, error)
	ConfirmBooking(ctx context.Context, actingUserID, bookingID int64, approve *bool) (*models.BookingView, error)
	GetBooking(ctx context.Context, actingUserID, bookingID int64) (*models.BookingView, error)
	ListForBooker(ctx context.Context, userID int64, state string) ([]models.BookingView, error)
	ListForOwner(ctx context.Context, userID int64, state string) ([]models.BookingView, error)
}

type ItemService interface {
	CreateItem(ctx context.Context, ownerID int64, item *models.Item) (*models.Item, error)
	UpdateItem(ctx context.Context, ownerID, itemID int64, patch models.ItemPatch) (*models.Item, error)
	GetItem(ctx context.Context, viewerID, itemID int64) (*models.ItemView, error)
	ListOwnerItems(ctx context.Context, ownerID int64) ([]models.ItemView, error)
	SearchItems(ctx context.Context, text string) ([]*models.Item, error)
	CreateComment(ctx context.Context, authorID, itemID int64, text string) (*models.CommentView, error)
}

type UserService interface {
	RegisterUser(ctx context.Context, user *models.User) (*models.User, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	UpdateUser(ctx context.Context, id int64, patch models.UserPatch) (*models.User, error)
	DeleteUser(ctx context.Context, id int64) error
	ListUsers(ctx context.Context) ([]*models.User, error)
}
