package service

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"shareit/internal/clock"
	"shareit/internal/database"
	"shareit/internal/events"
	"shareit/internal/models"
	"shareit/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

const day = 24 * time.Hour

type testEnv struct {
	db       *database.DB
	clock    *clock.Manual
	bookings *BookingService
	items    *ItemService
	users    *UserService

	owner  *models.User
	booker *models.User
	other  *models.User
	item   *models.Item

	mu        sync.Mutex
	published []string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zerolog.New(io.Discard)

	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	env := &testEnv{db: db, clock: clock.NewManual(baseTime)}

	bus := events.NewEventBus()
	for _, eventType := range events.AllEventTypes {
		bus.Subscribe(eventType, func(e *events.Event) error {
			env.mu.Lock()
			env.published = append(env.published, e.Type)
			env.mu.Unlock()
			return nil
		})
	}

	env.bookings = NewBookingService(db, repository.NewMemoryLockRepository(), bus, env.clock, time.Second, &logger)
	env.items = NewItemService(db, bus, env.clock, &logger)
	env.users = NewUserService(db, &logger)

	ctx := context.Background()
	env.owner = env.mustUser(t, "Owner", "owner@example.com")
	env.booker = env.mustUser(t, "Booker", "booker@example.com")
	env.other = env.mustUser(t, "Other", "other@example.com")

	env.item, err = env.items.CreateItem(ctx, env.owner.ID, &models.Item{Name: "Drill", Description: "cordless drill", Available: true})
	require.NoError(t, err)
	return env
}

func (e *testEnv) mustUser(t *testing.T, name, email string) *models.User {
	t.Helper()
	u, err := e.users.RegisterUser(context.Background(), &models.User{Name: name, Email: email})
	require.NoError(t, err)
	return u
}

func (e *testEnv) mustItem(t *testing.T, ownerID int64, name string) *models.Item {
	t.Helper()
	item, err := e.items.CreateItem(context.Background(), ownerID, &models.Item{Name: name, Description: name + " description", Available: true})
	require.NoError(t, err)
	return item
}

// book creates a booking relative to the current clock and optionally decides it.
func (e *testEnv) book(t *testing.T, itemID, bookerID int64, start, end time.Duration, status models.BookingStatus) *models.BookingView {
	t.Helper()
	ctx := context.Background()
	now := e.clock.Now()

	view, err := e.bookings.CreateBooking(ctx, bookerID, itemID, now.Add(start), now.Add(end))
	require.NoError(t, err)

	if status != models.StatusWaiting {
		item, err := e.db.GetItemByID(ctx, itemID)
		require.NoError(t, err)
		approve := status == models.StatusApproved
		view, err = e.bookings.ConfirmBooking(ctx, item.OwnerID, view.ID, &approve)
		require.NoError(t, err)
	}
	return view
}

func (e *testEnv) events() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.published...)
}

func boolPtr(v bool) *bool { return &v }

func strPtr(v string) *string { return &v }
