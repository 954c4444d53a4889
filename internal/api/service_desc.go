package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "teamspace.v1.WorkspaceService"

// Full method names, as used by clients.
const (
	WorkspaceService_GetStatus_FullMethodName     = "/" + ServiceName + "/GetStatus"
	WorkspaceService_List_FullMethodName          = "/" + ServiceName + "/List"
	WorkspaceService_Upsert_FullMethodName        = "/" + ServiceName + "/Upsert"
	WorkspaceService_Delete_FullMethodName        = "/" + ServiceName + "/Delete"
	WorkspaceService_SendMessage_FullMethodName   = "/" + ServiceName + "/SendMessage"
	WorkspaceService_MarkRead_FullMethodName      = "/" + ServiceName + "/MarkRead"
	WorkspaceService_JoinMeeting_FullMethodName   = "/" + ServiceName + "/JoinMeeting"
	WorkspaceService_CancelMeeting_FullMethodName = "/" + ServiceName + "/CancelMeeting"
	WorkspaceService_Reset_FullMethodName         = "/" + ServiceName + "/Reset"
	WorkspaceService_Watch_FullMethodName         = "/" + ServiceName + "/Watch"
)

// WorkspaceServiceServer is the server API. Requests and responses are
// google.protobuf.Struct values holding the JSON form of workspace entities.
type WorkspaceServiceServer interface {
	GetStatus(context.Context, *structpb.Struct) (*structpb.Struct, error)
	List(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Upsert(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Delete(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SendMessage(context.Context, *structpb.Struct) (*structpb.Struct, error)
	MarkRead(context.Context, *structpb.Struct) (*structpb.Struct, error)
	JoinMeeting(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CancelMeeting(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Reset(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Watch(*structpb.Struct, grpc.ServerStreamingServer[structpb.Struct]) error
}

type unaryMethod func(WorkspaceServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, call unaryMethod) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(WorkspaceServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(WorkspaceServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func watchHandler(srv any, stream grpc.ServerStream) error {
	in := new(structpb.Struct)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(WorkspaceServiceServer).Watch(in, &grpc.GenericServerStream[structpb.Struct, structpb.Struct]{ServerStream: stream})
}

// WorkspaceService_ServiceDesc describes the service for grpc.Server.
var WorkspaceService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*WorkspaceServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("GetStatus", WorkspaceServiceServer.GetStatus),
		unary("List", WorkspaceServiceServer.List),
		unary("Upsert", WorkspaceServiceServer.Upsert),
		unary("Delete", WorkspaceServiceServer.Delete),
		unary("SendMessage", WorkspaceServiceServer.SendMessage),
		unary("MarkRead", WorkspaceServiceServer.MarkRead),
		unary("JoinMeeting", WorkspaceServiceServer.JoinMeeting),
		unary("CancelMeeting", WorkspaceServiceServer.CancelMeeting),
		unary("Reset", WorkspaceServiceServer.Reset),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Watch",
			Handler:       watchHandler,
			ServerStreams: true,
		},
	},
	Metadata: "teamspace/v1/workspace.proto",
}

// RegisterWorkspaceServiceServer registers srv with s.
func RegisterWorkspaceServiceServer(s grpc.ServiceRegistrar, srv WorkspaceServiceServer) {
	s.RegisterService(&WorkspaceService_ServiceDesc, srv)
}

// WorkspaceServiceClient is the client API for WorkspaceService.
type WorkspaceServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewWorkspaceServiceClient creates a client on cc.
func NewWorkspaceServiceClient(cc grpc.ClientConnInterface) *WorkspaceServiceClient {
	return &WorkspaceServiceClient{cc: cc}
}

func (c *WorkspaceServiceClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *WorkspaceServiceClient) GetStatus(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, WorkspaceService_GetStatus_FullMethodName, in, opts...)
}

func (c *WorkspaceServiceClient) List(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, WorkspaceService_List_FullMethodName, in, opts...)
}

func (c *WorkspaceServiceClient) Upsert(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, WorkspaceService_Upsert_FullMethodName, in, opts...)
}

func (c *WorkspaceServiceClient) Delete(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, WorkspaceService_Delete_FullMethodName, in, opts...)
}

func (c *WorkspaceServiceClient) SendMessage(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, WorkspaceService_SendMessage_FullMethodName, in, opts...)
}

func (c *WorkspaceServiceClient) MarkRead(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, WorkspaceService_MarkRead_FullMethodName, in, opts...)
}

func (c *WorkspaceServiceClient) JoinMeeting(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, WorkspaceService_JoinMeeting_FullMethodName, in, opts...)
}

func (c *WorkspaceServiceClient) CancelMeeting(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, WorkspaceService_CancelMeeting_FullMethodName, in, opts...)
}

func (c *WorkspaceServiceClient) Reset(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, WorkspaceService_Reset_FullMethodName, in, opts...)
}

// Watch opens the event stream.
func (c *WorkspaceServiceClient) Watch(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (grpc.ServerStreamingClient[structpb.Struct], error) {
	stream, err := c.cc.NewStream(ctx, &WorkspaceService_ServiceDesc.Streams[0], WorkspaceService_Watch_FullMethodName, opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[structpb.Struct, structpb.Struct]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}
