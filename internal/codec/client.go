// Package codec is the gRPC step-content generator. Requests and responses
// are google.protobuf.Struct messages so any server that speaks the
// reasoning.v1.StepService/Generate method can back a session.
package codec

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/adaptive-reasoning/internal/reasoning"
)

// GenerateMethod is the full gRPC method name called for every step.
const GenerateMethod = "/reasoning.v1.StepService/Generate"

// #region types
// GenerateRequest is what the generator is told about one step.
type GenerateRequest struct {
	StepID         string
	Description    string
	ExpectedOutput string
	Domain         string
	Complexity     float64
	Constraints    []string
	PreviousSteps  []string
	Facts          map[string]string
}

// GenerateResult holds the response from a Generate RPC call.
type GenerateResult struct {
	Text string
	Data map[string]string
}
// #endregion types

// #region service
// StepServiceClient is the client side of reasoning.v1.StepService.
type StepServiceClient interface {
	Generate(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type stepServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewStepServiceClient binds the service to a connection.
func NewStepServiceClient(cc grpc.ClientConnInterface) StepServiceClient {
	return &stepServiceClient{cc: cc}
}

func (c *stepServiceClient) Generate(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, GenerateMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
// #endregion service

// #region client-struct
// CodecClient wraps the gRPC connection to the step generator service.
type CodecClient struct {
	conn   *grpc.ClientConn
	client StepServiceClient
}
// #endregion client-struct

// #region constructor
// NewCodecClient connects to the step generator gRPC server.
func NewCodecClient(addr string) (*CodecClient, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &CodecClient{
		conn:   conn,
		client: NewStepServiceClient(conn),
	}, nil
}

// NewCodecClientWithService creates a CodecClient with an injected service implementation.
// Used for testing without a real gRPC connection.
func NewCodecClientWithService(svc StepServiceClient) *CodecClient {
	return &CodecClient{client: svc}
}
// #endregion constructor

// #region close
// Close shuts down the gRPC connection.
func (c *CodecClient) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}
// #endregion close

// #region generate
// Generate sends one step to the generator service.
func (c *CodecClient) Generate(ctx context.Context, req GenerateRequest) (GenerateResult, error) {
	in, err := encodeRequest(req)
	if err != nil {
		return GenerateResult{}, fmt.Errorf("encode request: %w", err)
	}
	resp, err := c.client.Generate(ctx, in)
	if err != nil {
		return GenerateResult{}, fmt.Errorf("generate rpc: %w", err)
	}
	return decodeResult(resp), nil
}

// Execute adapts Generate to the chain's step executor contract.
func (c *CodecClient) Execute(ctx context.Context, step reasoning.Step, rc *reasoning.Context) (reasoning.StepOutcome, error) {
	req := GenerateRequest{
		StepID:         step.ID,
		Description:    step.Description,
		ExpectedOutput: step.ExpectedOutput,
	}
	if rc != nil {
		req.Domain = rc.Domain
		req.Complexity = rc.Complexity
		req.Constraints = rc.Constraints
		req.Facts = rc.Metadata.Facts
		for _, s := range rc.PreviousSteps {
			req.PreviousSteps = append(req.PreviousSteps, s.ID)
		}
	}
	res, err := c.Generate(ctx, req)
	if err != nil {
		return reasoning.StepOutcome{}, err
	}
	return reasoning.StepOutcome{Outcome: res.Text, Data: res.Data}, nil
}
// #endregion generate

// #region encoding
func encodeRequest(req GenerateRequest) (*structpb.Struct, error) {
	facts := make(map[string]any, len(req.Facts))
	for k, v := range req.Facts {
		facts[k] = v
	}
	return structpb.NewStruct(map[string]any{
		"step_id":         req.StepID,
		"description":     req.Description,
		"expected_output": req.ExpectedOutput,
		"domain":          req.Domain,
		"complexity":      req.Complexity,
		"constraints":     toList(req.Constraints),
		"previous_steps":  toList(req.PreviousSteps),
		"facts":           facts,
	})
}

func toList(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// decodeResult reads "text" and the string entries of "data". Non-string
// data values are rendered with their JSON form.
func decodeResult(resp *structpb.Struct) GenerateResult {
	fields := resp.GetFields()
	res := GenerateResult{Text: fields["text"].GetStringValue()}
	data := fields["data"].GetStructValue().GetFields()
	if len(data) == 0 {
		return res
	}
	res.Data = make(map[string]string, len(data))
	for k, v := range data {
		if s, ok := v.GetKind().(*structpb.Value_StringValue); ok {
			res.Data[k] = s.StringValue
			continue
		}
		b, err := v.MarshalJSON()
		if err != nil {
			continue
		}
		res.Data[k] = string(b)
	}
	return res
}
// #endregion encoding
