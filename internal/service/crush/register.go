package crush

import (
	"context"

	"google.golang.org/grpc"

	"github.com/oggyb/crush-connector/internal/app"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "crush.v1.CrushService"

// CrushServer is the server API for the crush service.
type CrushServer interface {
	SubmitCrushes(context.Context, *SubmitCrushesRequest) (*SubmitCrushesResponse, error)
	CheckMatch(context.Context, *CheckMatchRequest) (*CheckMatchResponse, error)
	GetQuota(context.Context, *GetQuotaRequest) (*GetQuotaResponse, error)
	RegisterPerson(context.Context, *RegisterPersonRequest) (*RegisterPersonResponse, error)
	SearchPeople(context.Context, *SearchPeopleRequest) (*SearchPeopleResponse, error)
	AddCheckpoint(context.Context, *AddCheckpointRequest) (*AddCheckpointResponse, error)
	ListCheckpoints(context.Context, *ListCheckpointsRequest) (*ListCheckpointsResponse, error)
}

// Registrar ties the Crush service into the gRPC server
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the Crush service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the Crush service implementation to the gRPC server
func (r *Registrar) Register(s *grpc.Server) {
	RegisterCrushServer(s, NewCrushService(r.appCtx))
}

// RegisterCrushServer registers srv on s.
func RegisterCrushServer(s grpc.ServiceRegistrar, srv CrushServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// ServiceDesc describes the crush service for grpc.Server.RegisterService.
// Messages travel with the json codec from internal/server.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CrushServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SubmitCrushes", Handler: unary(CrushServer.SubmitCrushes)},
		{MethodName: "CheckMatch", Handler: unary(CrushServer.CheckMatch)},
		{MethodName: "GetQuota", Handler: unary(CrushServer.GetQuota)},
		{MethodName: "RegisterPerson", Handler: unary(CrushServer.RegisterPerson)},
		{MethodName: "SearchPeople", Handler: unary(CrushServer.SearchPeople)},
		{MethodName: "AddCheckpoint", Handler: unary(CrushServer.AddCheckpoint)},
		{MethodName: "ListCheckpoints", Handler: unary(CrushServer.ListCheckpoints)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "crush/v1/crush.json",
}

// unary adapts a typed method expression to a grpc.MethodDesc handler.
func unary[Req, Resp any](call func(CrushServer, context.Context, *Req) (*Resp, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(CrushServer), ctx, in)
		}
		method, _ := grpc.Method(ctx)
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(CrushServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}
