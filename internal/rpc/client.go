package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
)

type BookingServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewBookingServiceClient returns a client whose calls use the JSON codec.
func NewBookingServiceClient(cc grpc.ClientConnInterface) *BookingServiceClient {
	return &BookingServiceClient{cc: cc}
}

func (c *BookingServiceClient) opts(extra []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, extra...)
}

func invoke[Resp any](ctx context.Context, c *BookingServiceClient, name string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	if err := c.cc.Invoke(ctx, FullMethod(name), in, out, c.opts(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *BookingServiceClient) Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	return invoke[AuthResponse](ctx, c, "Register", in, opts)
}

func (c *BookingServiceClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	return invoke[AuthResponse](ctx, c, "Login", in, opts)
}

func (c *BookingServiceClient) Refresh(ctx context.Context, in *RefreshRequest, opts ...grpc.CallOption) (*AuthResponse, error) {
	return invoke[AuthResponse](ctx, c, "Refresh", in, opts)
}

func (c *BookingServiceClient) Logout(ctx context.Context, opts ...grpc.CallOption) error {
	_, err := invoke[emptypb.Empty](ctx, c, "Logout", &emptypb.Empty{}, opts)
	return err
}

func (c *BookingServiceClient) GetProfile(ctx context.Context, opts ...grpc.CallOption) (*Profile, error) {
	return invoke[Profile](ctx, c, "GetProfile", &emptypb.Empty{}, opts)
}

func (c *BookingServiceClient) UpdateProfile(ctx context.Context, in *UpdateProfileRequest, opts ...grpc.CallOption) (*Profile, error) {
	return invoke[Profile](ctx, c, "UpdateProfile", in, opts)
}

func (c *BookingServiceClient) CreateAppointment(ctx context.Context, in *CreateAppointmentRequest, opts ...grpc.CallOption) (*Appointment, error) {
	return invoke[Appointment](ctx, c, "CreateAppointment", in, opts)
}

func (c *BookingServiceClient) GetAppointment(ctx context.Context, in *GetRequest, opts ...grpc.CallOption) (*Appointment, error) {
	return invoke[Appointment](ctx, c, "GetAppointment", in, opts)
}

func (c *BookingServiceClient) ListAppointments(ctx context.Context, in *ListRequest, opts ...grpc.CallOption) (*AppointmentList, error) {
	return invoke[AppointmentList](ctx, c, "ListAppointments", in, opts)
}

func (c *BookingServiceClient) CreateHelpRequest(ctx context.Context, in *CreateHelpRequestRequest, opts ...grpc.CallOption) (*HelpRequest, error) {
	return invoke[HelpRequest](ctx, c, "CreateHelpRequest", in, opts)
}

func (c *BookingServiceClient) GetHelpRequest(ctx context.Context, in *GetRequest, opts ...grpc.CallOption) (*HelpRequest, error) {
	return invoke[HelpRequest](ctx, c, "GetHelpRequest", in, opts)
}

func (c *BookingServiceClient) ListHelpRequests(ctx context.Context, in *ListRequest, opts ...grpc.CallOption) (*HelpRequestList, error) {
	return invoke[HelpRequestList](ctx, c, "ListHelpRequests", in, opts)
}

func (c *BookingServiceClient) GetStats(ctx context.Context, opts ...grpc.CallOption) (*Stats, error) {
	return invoke[Stats](ctx, c, "GetStats", &emptypb.Empty{}, opts)
}

func (c *BookingServiceClient) AdminListAppointments(ctx context.Context, in *ListRequest, opts ...grpc.CallOption) (*AppointmentList, error) {
	return invoke[AppointmentList](ctx, c, "AdminListAppointments", in, opts)
}

func (c *BookingServiceClient) AdminListHelpRequests(ctx context.Context, in *ListRequest, opts ...grpc.CallOption) (*HelpRequestList, error) {
	return invoke[HelpRequestList](ctx, c, "AdminListHelpRequests", in, opts)
}

func (c *BookingServiceClient) SetAppointmentStatus(ctx context.Context, in *SetStatusRequest, opts ...grpc.CallOption) (*Appointment, error) {
	return invoke[Appointment](ctx, c, "SetAppointmentStatus", in, opts)
}

func (c *BookingServiceClient) SetHelpRequestStatus(ctx context.Context, in *SetStatusRequest, opts ...grpc.CallOption) (*HelpRequest, error) {
	return invoke[HelpRequest](ctx, c, "SetHelpRequestStatus", in, opts)
}

type BookingService_WatchClient interface {
	Recv() (*Snapshot, error)
	grpc.ClientStream
}

func (c *BookingServiceClient) Watch(ctx context.Context, in *WatchRequest, opts ...grpc.CallOption) (BookingService_WatchClient, error) {
	stream, err := c.cc.NewStream(ctx, &BookingService_ServiceDesc.Streams[0], MethodWatch, c.opts(opts)...)
	if err != nil {
		return nil, err
	}
	x := &bookingServiceWatchClient{stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

type bookingServiceWatchClient struct {
	grpc.ClientStream
}

func (x *bookingServiceWatchClient) Recv() (*Snapshot, error) {
	m := new(Snapshot)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}
