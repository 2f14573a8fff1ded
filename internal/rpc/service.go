// Package rpc describes the booking.v1.BookingService gRPC service: its
// messages, its service descriptor and a typed client.
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
)

const ServiceName = "booking.v1.BookingService"

// FullMethod returns the gRPC path of a BookingService method.
func FullMethod(name string) string { return "/" + ServiceName + "/" + name }

var (
	MethodRegister = FullMethod("Register")
	MethodLogin    = FullMethod("Login")
	MethodRefresh  = FullMethod("Refresh")
	MethodWatch    = FullMethod("Watch")
)

type BookingServiceServer interface {
	Register(context.Context, *RegisterRequest) (*AuthResponse, error)
	Login(context.Context, *LoginRequest) (*AuthResponse, error)
	Refresh(context.Context, *RefreshRequest) (*AuthResponse, error)
	Logout(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	GetProfile(context.Context, *emptypb.Empty) (*Profile, error)
	UpdateProfile(context.Context, *UpdateProfileRequest) (*Profile, error)

	CreateAppointment(context.Context, *CreateAppointmentRequest) (*Appointment, error)
	GetAppointment(context.Context, *GetRequest) (*Appointment, error)
	ListAppointments(context.Context, *ListRequest) (*AppointmentList, error)
	CreateHelpRequest(context.Context, *CreateHelpRequestRequest) (*HelpRequest, error)
	GetHelpRequest(context.Context, *GetRequest) (*HelpRequest, error)
	ListHelpRequests(context.Context, *ListRequest) (*HelpRequestList, error)
	GetStats(context.Context, *emptypb.Empty) (*Stats, error)

	AdminListAppointments(context.Context, *ListRequest) (*AppointmentList, error)
	AdminListHelpRequests(context.Context, *ListRequest) (*HelpRequestList, error)
	SetAppointmentStatus(context.Context, *SetStatusRequest) (*Appointment, error)
	SetHelpRequestStatus(context.Context, *SetStatusRequest) (*HelpRequest, error)

	Watch(*WatchRequest, BookingService_WatchServer) error
}

// UnimplementedBookingServiceServer answers every call with Unimplemented.
type UnimplementedBookingServiceServer struct{}

func unimplemented(name string) error {
	return status.Errorf(codes.Unimplemented, "method %s not implemented", name)
}

func (UnimplementedBookingServiceServer) Register(context.Context, *RegisterRequest) (*AuthResponse, error) {
	return nil, unimplemented("Register")
}
func (UnimplementedBookingServiceServer) Login(context.Context, *LoginRequest) (*AuthResponse, error) {
	return nil, unimplemented("Login")
}
func (UnimplementedBookingServiceServer) Refresh(context.Context, *RefreshRequest) (*AuthResponse, error) {
	return nil, unimplemented("Refresh")
}
func (UnimplementedBookingServiceServer) Logout(context.Context, *emptypb.Empty) (*emptypb.Empty, error) {
	return nil, unimplemented("Logout")
}
func (UnimplementedBookingServiceServer) GetProfile(context.Context, *emptypb.Empty) (*Profile, error) {
	return nil, unimplemented("GetProfile")
}
func (UnimplementedBookingServiceServer) UpdateProfile(context.Context, *UpdateProfileRequest) (*Profile, error) {
	return nil, unimplemented("UpdateProfile")
}
func (UnimplementedBookingServiceServer) CreateAppointment(context.Context, *CreateAppointmentRequest) (*Appointment, error) {
	return nil, unimplemented("CreateAppointment")
}
func (UnimplementedBookingServiceServer) GetAppointment(context.Context, *GetRequest) (*Appointment, error) {
	return nil, unimplemented("GetAppointment")
}
func (UnimplementedBookingServiceServer) ListAppointments(context.Context, *ListRequest) (*AppointmentList, error) {
	return nil, unimplemented("ListAppointments")
}
func (UnimplementedBookingServiceServer) CreateHelpRequest(context.Context, *CreateHelpRequestRequest) (*HelpRequest, error) {
	return nil, unimplemented("CreateHelpRequest")
}
func (UnimplementedBookingServiceServer) GetHelpRequest(context.Context, *GetRequest) (*HelpRequest, error) {
	return nil, unimplemented("GetHelpRequest")
}
func (UnimplementedBookingServiceServer) ListHelpRequests(context.Context, *ListRequest) (*HelpRequestList, error) {
	return nil, unimplemented("ListHelpRequests")
}
func (UnimplementedBookingServiceServer) GetStats(context.Context, *emptypb.Empty) (*Stats, error) {
	return nil, unimplemented("GetStats")
}
func (UnimplementedBookingServiceServer) AdminListAppointments(context.Context, *ListRequest) (*AppointmentList, error) {
	return nil, unimplemented("AdminListAppointments")
}
func (UnimplementedBookingServiceServer) AdminListHelpRequests(context.Context, *ListRequest) (*HelpRequestList, error) {
	return nil, unimplemented("AdminListHelpRequests")
}
func (UnimplementedBookingServiceServer) SetAppointmentStatus(context.Context, *SetStatusRequest) (*Appointment, error) {
	return nil, unimplemented("SetAppointmentStatus")
}
func (UnimplementedBookingServiceServer) SetHelpRequestStatus(context.Context, *SetStatusRequest) (*HelpRequest, error) {
	return nil, unimplemented("SetHelpRequestStatus")
}
func (UnimplementedBookingServiceServer) Watch(*WatchRequest, BookingService_WatchServer) error {
	return unimplemented("Watch")
}

// unary builds the method descriptor for a unary call. call is a method
// expression on BookingServiceServer.
func unary[Req, Resp any](name string, call func(BookingServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(BookingServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(BookingServiceServer), ctx, req.(*Req))
			})
		},
	}
}

func _BookingService_Watch_Handler(srv any, stream grpc.ServerStream) error {
	m := new(WatchRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(BookingServiceServer).Watch(m, &bookingServiceWatchServer{stream})
}

type BookingService_WatchServer interface {
	Send(*Snapshot) error
	grpc.ServerStream
}

type bookingServiceWatchServer struct {
	grpc.ServerStream
}

func (x *bookingServiceWatchServer) Send(m *Snapshot) error {
	return x.ServerStream.SendMsg(m)
}

var BookingService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BookingServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Register", BookingServiceServer.Register),
		unary("Login", BookingServiceServer.Login),
		unary("Refresh", BookingServiceServer.Refresh),
		unary("Logout", BookingServiceServer.Logout),
		unary("GetProfile", BookingServiceServer.GetProfile),
		unary("UpdateProfile", BookingServiceServer.UpdateProfile),
		unary("CreateAppointment", BookingServiceServer.CreateAppointment),
		unary("GetAppointment", BookingServiceServer.GetAppointment),
		unary("ListAppointments", BookingServiceServer.ListAppointments),
		unary("CreateHelpRequest", BookingServiceServer.CreateHelpRequest),
		unary("GetHelpRequest", BookingServiceServer.GetHelpRequest),
		unary("ListHelpRequests", BookingServiceServer.ListHelpRequests),
		unary("GetStats", BookingServiceServer.GetStats),
		unary("AdminListAppointments", BookingServiceServer.AdminListAppointments),
		unary("AdminListHelpRequests", BookingServiceServer.AdminListHelpRequests),
		unary("SetAppointmentStatus", BookingServiceServer.SetAppointmentStatus),
		unary("SetHelpRequestStatus", BookingServiceServer.SetHelpRequestStatus),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Watch",
			Handler:       _BookingService_Watch_Handler,
			ServerStreams: true,
		},
	},
}

func RegisterBookingServiceServer(s grpc.ServiceRegistrar, srv BookingServiceServer) {
	s.RegisterService(&BookingService_ServiceDesc, srv)
}
