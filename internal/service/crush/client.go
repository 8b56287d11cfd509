package crush

import (
	"context"

	"google.golang.org/grpc"

	"github.com/oggyb/crush-connector/internal/server"
)

// Client calls the crush service over a gRPC connection using the json codec.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, method string, in, out any, opts ...grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(server.CodecName)}, opts...)
	return c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...)
}

func (c *Client) SubmitCrushes(ctx context.Context, in *SubmitCrushesRequest, opts ...grpc.CallOption) (*SubmitCrushesResponse, error) {
	out := new(SubmitCrushesResponse)
	if err := c.invoke(ctx, "SubmitCrushes", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CheckMatch(ctx context.Context, in *CheckMatchRequest, opts ...grpc.CallOption) (*CheckMatchResponse, error) {
	out := new(CheckMatchResponse)
	if err := c.invoke(ctx, "CheckMatch", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetQuota(ctx context.Context, in *GetQuotaRequest, opts ...grpc.CallOption) (*GetQuotaResponse, error) {
	out := new(GetQuotaResponse)
	if err := c.invoke(ctx, "GetQuota", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) RegisterPerson(ctx context.Context, in *RegisterPersonRequest, opts ...grpc.CallOption) (*RegisterPersonResponse, error) {
	out := new(RegisterPersonResponse)
	if err := c.invoke(ctx, "RegisterPerson", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SearchPeople(ctx context.Context, in *SearchPeopleRequest, opts ...grpc.CallOption) (*SearchPeopleResponse, error) {
	out := new(SearchPeopleResponse)
	if err := c.invoke(ctx, "SearchPeople", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AddCheckpoint(ctx context.Context, in *AddCheckpointRequest, opts ...grpc.CallOption) (*AddCheckpointResponse, error) {
	out := new(AddCheckpointResponse)
	if err := c.invoke(ctx, "AddCheckpoint", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListCheckpoints(ctx context.Context, in *ListCheckpointsRequest, opts ...grpc.CallOption) (*ListCheckpointsResponse, error) {
	out := new(ListCheckpointsResponse)
	if err := c.invoke(ctx, "ListCheckpoints", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
