package api

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"shareit/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

func startGRPC(t *testing.T, env *apiEnv, cfg config.APIConfig) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	logger := zerolog.New(io.Discard)
	srv := newGRPCServer(cfg, env.svc, lis, &logger)
	go func() { _ = srv.Serve() }()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	})

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}

func TestBookingQueryOverGRPC(t *testing.T) {
	env := newAPIEnv(t, nil)
	owner := env.createUser(t, "Owner", "owner@example.com")
	booker := env.createUser(t, "Booker", "booker@example.com")
	stranger := env.createUser(t, "Stranger", "stranger@example.com")
	itemID := env.createItem(t, owner, "Drill")
	bookingID := env.createBooking(t, booker, itemID, baseTime.Add(time.Hour), baseTime.Add(2*time.Hour))

	client := NewBookingQueryClient(startGRPC(t, env, env.cfg.API))
	ctx := context.Background()

	t.Run("GetBooking", func(t *testing.T) {
		resp, err := client.GetBooking(ctx, mustStruct(t, map[string]any{"user_id": booker, "booking_id": bookingID}))
		require.NoError(t, err)
		fields := resp.GetFields()
		assert.Equal(t, float64(bookingID), fields["id"].GetNumberValue())
		assert.Equal(t, "WAITING", fields["status"].GetStringValue())
		assert.Equal(t, "Drill", fields["item"].GetStructValue().GetFields()["name"].GetStringValue())
	})

	t.Run("GetBookingForbidden", func(t *testing.T) {
		_, err := client.GetBooking(ctx, mustStruct(t, map[string]any{"user_id": stranger, "booking_id": bookingID}))
		assert.Equal(t, codes.PermissionDenied, status.Code(err))
	})

	t.Run("GetBookingNotFound", func(t *testing.T) {
		_, err := client.GetBooking(ctx, mustStruct(t, map[string]any{"user_id": booker, "booking_id": 999}))
		assert.Equal(t, codes.NotFound, status.Code(err))
	})

	t.Run("MissingField", func(t *testing.T) {
		_, err := client.GetBooking(ctx, mustStruct(t, map[string]any{"user_id": booker}))
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
		_, err = client.GetBooking(ctx, mustStruct(t, map[string]any{"user_id": 1.5, "booking_id": bookingID}))
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})

	t.Run("ListBookings", func(t *testing.T) {
		resp, err := client.ListBookings(ctx, mustStruct(t, map[string]any{"user_id": owner, "role": "owner", "state": "future"}))
		require.NoError(t, err)
		list := resp.GetFields()["bookings"].GetListValue().GetValues()
		require.Len(t, list, 1)
		assert.Equal(t, float64(bookingID), list[0].GetStructValue().GetFields()["id"].GetNumberValue())

		resp, err = client.ListBookings(ctx, mustStruct(t, map[string]any{"user_id": booker, "state": "PAST"}))
		require.NoError(t, err)
		assert.Empty(t, resp.GetFields()["bookings"].GetListValue().GetValues())

		_, err = client.ListBookings(ctx, mustStruct(t, map[string]any{"user_id": booker, "state": "LATER"}))
		assert.Equal(t, codes.InvalidArgument, status.Code(err))

		_, err = client.ListBookings(ctx, mustStruct(t, map[string]any{"user_id": booker, "role": "admin"}))
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})

	t.Run("GetItem", func(t *testing.T) {
		approved := true
		_, err := env.svc.Bookings.ConfirmBooking(ctx, owner, bookingID, &approved)
		require.NoError(t, err)

		resp, err := client.GetItem(ctx, mustStruct(t, map[string]any{"user_id": owner, "item_id": itemID}))
		require.NoError(t, err)
		fields := resp.GetFields()
		assert.Equal(t, "Drill", fields["name"].GetStringValue())
		next := fields["next_booking"].GetStructValue()
		require.NotNil(t, next)
		assert.Equal(t, float64(bookingID), next.GetFields()["id"].GetNumberValue())
		_, isNull := fields["last_booking"].GetKind().(*structpb.Value_NullValue)
		assert.True(t, isNull)
	})

	t.Run("Health", func(t *testing.T) {
		conn := startGRPC(t, env, env.cfg.API)
		resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: bookingQueryService})
		require.NoError(t, err)
		assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
	})
}

func TestGRPCAuth(t *testing.T) {
	env := newAPIEnv(t, nil)
	owner := env.createUser(t, "Owner", "owner@example.com")
	itemID := env.createItem(t, owner, "Drill")

	cfg := env.cfg.API
	cfg.Auth = config.APIAuthConfig{
		Enabled: true,
		APIKeys: []config.APIClientKey{{Key: "items-only", Permissions: []string{permReadItems}}},
	}
	client := NewBookingQueryClient(startGRPC(t, env, cfg))

	req := mustStruct(t, map[string]any{"user_id": owner, "item_id": itemID})
	_, err := client.GetItem(context.Background(), req)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	ctx := metadata.AppendToOutgoingContext(context.Background(), "x-api-key", "items-only")
	_, err = client.GetItem(ctx, req)
	assert.NoError(t, err)

	_, err = client.ListBookings(ctx, mustStruct(t, map[string]any{"user_id": owner}))
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	var header metadata.MD
	_, err = client.GetItem(ctx, req, grpc.Header(&header))
	require.NoError(t, err)
	assert.NotEmpty(t, header.Get("x-request-id"))
}
