package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"shareit/internal/domain"
	"shareit/internal/models"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	bookingQueryService = "shareit.booking.v1.BookingQuery"

	methodGetBooking   = "/" + bookingQueryService + "/GetBooking"
	methodListBookings = "/" + bookingQueryService + "/ListBookings"
	methodGetItem      = "/" + bookingQueryService + "/GetItem"
)

// BookingQueryServer is the read side of the booking API over gRPC. Requests
// and responses are google.protobuf.Struct messages whose fields mirror the
// JSON API.
type BookingQueryServer interface {
	GetBooking(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListBookings(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetItem(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

func RegisterBookingQueryServer(s grpc.ServiceRegistrar, srv BookingQueryServer) {
	s.RegisterService(&bookingQueryServiceDesc, srv)
}

var bookingQueryServiceDesc = grpc.ServiceDesc{
	ServiceName: bookingQueryService,
	HandlerType: (*BookingQueryServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetBooking", Handler: unaryHandler(methodGetBooking, BookingQueryServer.GetBooking)},
		{MethodName: "ListBookings", Handler: unaryHandler(methodListBookings, BookingQueryServer.ListBookings)},
		{MethodName: "GetItem", Handler: unaryHandler(methodGetItem, BookingQueryServer.GetItem)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "shareit/booking/v1/booking_query.proto",
}

type structMethod func(BookingQueryServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call structMethod) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(BookingQueryServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(BookingQueryServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// BookingQueryClient calls BookingQuery over an existing connection.
type BookingQueryClient struct {
	cc grpc.ClientConnInterface
}

func NewBookingQueryClient(cc grpc.ClientConnInterface) *BookingQueryClient {
	return &BookingQueryClient{cc: cc}
}

func (c *BookingQueryClient) call(ctx context.Context, method string, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *BookingQueryClient) GetBooking(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.call(ctx, methodGetBooking, req, opts...)
}

func (c *BookingQueryClient) ListBookings(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.call(ctx, methodListBookings, req, opts...)
}

func (c *BookingQueryClient) GetItem(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.call(ctx, methodGetItem, req, opts...)
}

// BookingQueryService adapts the application services to BookingQueryServer.
type BookingQueryService struct {
	svc Services
}

func NewBookingQueryService(svc Services) *BookingQueryService {
	return &BookingQueryService{svc: svc}
}

func (s *BookingQueryService) GetBooking(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := int64Field(req, "user_id")
	if err != nil {
		return nil, err
	}
	bookingID, err := int64Field(req, "booking_id")
	if err != nil {
		return nil, err
	}
	view, err := s.svc.Bookings.GetBooking(ctx, userID, bookingID)
	if err != nil {
		return nil, grpcError(err)
	}
	return toStruct(view)
}

// ListBookings lists bookings of user_id as booker, or as owner when role is "owner".
func (s *BookingQueryService) ListBookings(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := int64Field(req, "user_id")
	if err != nil {
		return nil, err
	}
	state := req.GetFields()["state"].GetStringValue()

	var views []models.BookingView
	switch role := strings.ToLower(req.GetFields()["role"].GetStringValue()); role {
	case "", "booker":
		views, err = s.svc.Bookings.ListForBooker(ctx, userID, state)
	case "owner":
		views, err = s.svc.Bookings.ListForOwner(ctx, userID, state)
	default:
		return nil, status.Errorf(codes.InvalidArgument, "unknown role %q", role)
	}
	if err != nil {
		return nil, grpcError(err)
	}
	if views == nil {
		views = []models.BookingView{}
	}
	return toStruct(struct {
		Bookings []models.BookingView `json:"bookings"`
	}{Bookings: views})
}

func (s *BookingQueryService) GetItem(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := int64Field(req, "user_id")
	if err != nil {
		return nil, err
	}
	itemID, err := int64Field(req, "item_id")
	if err != nil {
		return nil, err
	}
	view, err := s.svc.Items.GetItem(ctx, userID, itemID)
	if err != nil {
		return nil, grpcError(err)
	}
	return toStruct(view)
}

func int64Field(req *structpb.Struct, name string) (int64, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		return 0, status.Errorf(codes.InvalidArgument, "%s is required", name)
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok || n.NumberValue <= 0 || n.NumberValue != math.Trunc(n.NumberValue) {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be a positive integer", name)
	}
	return int64(n.NumberValue), nil
}

// toStruct converts a view through its JSON form so both transports expose the same field names.
func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

func grpcError(err error) error {
	var code codes.Code
	switch {
	case errors.Is(err, domain.ErrNotFound):
		code = codes.NotFound
	case errors.Is(err, domain.ErrForbidden):
		code = codes.PermissionDenied
	case errors.Is(err, domain.ErrConflict):
		code = codes.FailedPrecondition
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidInput):
		code = codes.InvalidArgument
	default:
		return status.Error(codes.Internal, fmt.Sprintf("internal error: %v", err))
	}
	return status.Error(code, err.Error())
}
