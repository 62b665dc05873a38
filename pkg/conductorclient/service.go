// Package conductorclient is the client-facing gRPC surface a conductor
// process exposes to start a Pregel execution and poll its progress,
// adapted from bagel/coord.go's StartQuery/listenClientsgRPC.
//
// bagel/coord.go and bagel/proto/coord_client/main/coord_client.go both
// import a generated protobuf package (coordgRPC "project/bagel/proto/coord")
// whose generated Go source is absent from the teacher tree - see
// DESIGN.md. Rather than forge a fake *.pb.go, the service below wires a
// grpc.ServiceDesc by hand (a supported, documented way to register a
// gRPC service without protoc) using structpb.Struct - a real,
// already-compiled message type from google.golang.org/protobuf - as
// the request/response type, carrying the same Query/QueryResult fields
// bagel/proto/coord_client/main/coord_client.go sends.
package conductorclient

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName mirrors the "Coord" gRPC service bagel/proto/coord defines.
const ServiceName = "pregel.ConductorClient"

// Server is the gRPC-facing half of a conductor: it starts an execution
// across a fixed worker set and answers status queries. The BSP
// orchestration loop itself (deciding when to advance gss) is the
// conductor's job, not this facade's.
type Server interface {
	StartExecution(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	QueryStatus(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc is the hand-written equivalent of what protoc-gen-go-grpc
// would emit for a two-method "ConductorClient" service.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*Server)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "StartExecution", Handler: startExecutionHandler},
		{MethodName: "QueryStatus", Handler: queryStatusHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "conductorclient.proto",
}

func startExecutionHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Server).StartExecution(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/StartExecution"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(Server).StartExecution(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func queryStatusHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Server).QueryStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/QueryStatus"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(Server).QueryStatus(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// RegisterServer registers srv on s, mirroring the generated
// RegisterCoordServer bagel/coord.go's listenClientsgRPC calls.
func RegisterServer(s grpc.ServiceRegistrar, srv Server) {
	s.RegisterService(&ServiceDesc, srv)
}

// Client is the hand-written equivalent of the generated CoordClient
// bagel/proto/coord_client/main/coord_client.go dials.
type Client interface {
	StartExecution(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	QueryStatus(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type client struct {
	cc grpc.ClientConnInterface
}

// NewClient mirrors the generated NewCoordClient constructor.
func NewClient(cc grpc.ClientConnInterface) Client {
	return &client{cc: cc}
}

func (c *client) StartExecution(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/StartExecution", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *client) QueryStatus(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/QueryStatus", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
