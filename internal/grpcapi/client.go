package grpcapi

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/roach88/timelockidx/internal/ir"
)

// Client is a typed wrapper over RegistryClient.
type Client struct {
	cc     *grpc.ClientConn
	client RegistryClient

	// Timeout applies per RPC when non-zero.
	Timeout time.Duration
}

// DialOptions configures Dial.
type DialOptions struct {
	// Timeout applies per RPC when non-zero.
	Timeout time.Duration

	// Extra options appended after the defaults (tests pass a bufconn dialer).
	Extra []grpc.DialOption
}

// Dial creates a client for target. The connection is established lazily on
// the first RPC.
func Dial(target string, opts DialOptions) (*Client, error) {
	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}, opts.Extra...)

	cc, err := grpc.NewClient(target, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", target, err)
	}
	return &Client{cc: cc, client: NewRegistryClient(cc), Timeout: opts.Timeout}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c == nil || c.cc == nil {
		return nil
	}
	return c.cc.Close()
}

func (c *Client) ctx(parent context.Context) (context.Context, context.CancelFunc) {
	if c.Timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, c.Timeout)
}

func marshalRequest(v any) (*wrapperspb.BytesValue, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return wrapperspb.Bytes(data), nil
}

func decodeReply[T any](reply *wrapperspb.BytesValue) (T, error) {
	var out T
	if err := json.Unmarshal(reply.GetValue(), &out); err != nil {
		return out, fmt.Errorf("decode reply: %w", err)
	}
	return out, nil
}

// Schedule submits op as caller and returns its identity.
func (c *Client) Schedule(ctx context.Context, caller ir.Address, op ir.Operation) (ir.Identity, error) {
	in, err := marshalRequest(ScheduleRequest{Caller: caller, Operation: op})
	if err != nil {
		return ir.Identity{}, err
	}
	ctx, cancel := c.ctx(ctx)
	defer cancel()

	reply, err := c.client.Schedule(ctx, in)
	if err != nil {
		return ir.Identity{}, err
	}
	return ParseIdentity(reply.GetValue())
}

// ScheduleBatch submits b as caller and returns its identity.
func (c *Client) ScheduleBatch(ctx context.Context, caller ir.Address, b ir.OperationBatch) (ir.Identity, error) {
	in, err := marshalRequest(ScheduleBatchRequest{Caller: caller, Batch: b})
	if err != nil {
		return ir.Identity{}, err
	}
	ctx, cancel := c.ctx(ctx)
	defer cancel()

	reply, err := c.client.ScheduleBatch(ctx, in)
	if err != nil {
		return ir.Identity{}, err
	}
	return ParseIdentity(reply.GetValue())
}

// Cancel cancels id as caller.
func (c *Client) Cancel(ctx context.Context, caller ir.Address, id ir.Identity) error {
	in, err := marshalRequest(CancelRequest{Caller: caller, ID: id})
	if err != nil {
		return err
	}
	ctx, cancel := c.ctx(ctx)
	defer cancel()

	_, err = c.client.Cancel(ctx, in)
	return err
}

// Execute executes op as caller.
func (c *Client) Execute(ctx context.Context, caller ir.Address, op ir.Operation) error {
	in, err := marshalRequest(ExecuteRequest{Caller: caller, Operation: op})
	if err != nil {
		return err
	}
	ctx, cancel := c.ctx(ctx)
	defer cancel()

	_, err = c.client.Execute(ctx, in)
	return err
}

// ExecuteBatch executes b as caller.
func (c *Client) ExecuteBatch(ctx context.Context, caller ir.Address, b ir.OperationBatch) error {
	in, err := marshalRequest(ExecuteBatchRequest{Caller: caller, Batch: b})
	if err != nil {
		return err
	}
	ctx, cancel := c.ctx(ctx)
	defer cancel()

	_, err = c.client.ExecuteBatch(ctx, in)
	return err
}

// OperationCount returns the number of indexed operations.
func (c *Client) OperationCount(ctx context.Context) (int64, error) {
	ctx, cancel := c.ctx(ctx)
	defer cancel()

	reply, err := c.client.OperationCount(ctx, &emptypb.Empty{})
	if err != nil {
		return 0, err
	}
	return reply.GetValue(), nil
}

// BatchCount returns the number of indexed batches.
func (c *Client) BatchCount(ctx context.Context) (int64, error) {
	ctx, cancel := c.ctx(ctx)
	defer cancel()

	reply, err := c.client.BatchCount(ctx, &emptypb.Empty{})
	if err != nil {
		return 0, err
	}
	return reply.GetValue(), nil
}

// Operations lists every indexed operation in positional order.
func (c *Client) Operations(ctx context.Context) ([]OperationRecord, error) {
	ctx, cancel := c.ctx(ctx)
	defer cancel()

	reply, err := c.client.Operations(ctx, &emptypb.Empty{})
	if err != nil {
		return nil, err
	}
	return decodeReply[[]OperationRecord](reply)
}

// Batches lists every indexed batch in positional order.
func (c *Client) Batches(ctx context.Context) ([]BatchRecord, error) {
	ctx, cancel := c.ctx(ctx)
	defer cancel()

	reply, err := c.client.Batches(ctx, &emptypb.Empty{})
	if err != nil {
		return nil, err
	}
	return decodeReply[[]BatchRecord](reply)
}

// OperationAt returns the operation at position i.
func (c *Client) OperationAt(ctx context.Context, i int64) (OperationRecord, error) {
	ctx, cancel := c.ctx(ctx)
	defer cancel()

	reply, err := c.client.OperationAt(ctx, wrapperspb.Int64(i))
	if err != nil {
		return OperationRecord{}, err
	}
	return decodeReply[OperationRecord](reply)
}

// BatchAt returns the batch at position i.
func (c *Client) BatchAt(ctx context.Context, i int64) (BatchRecord, error) {
	ctx, cancel := c.ctx(ctx)
	defer cancel()

	reply, err := c.client.BatchAt(ctx, wrapperspb.Int64(i))
	if err != nil {
		return BatchRecord{}, err
	}
	return decodeReply[BatchRecord](reply)
}

// Operation returns the operation indexed under id.
func (c *Client) Operation(ctx context.Context, id ir.Identity) (OperationRecord, error) {
	ctx, cancel := c.ctx(ctx)
	defer cancel()

	reply, err := c.client.Operation(ctx, wrapperspb.String(id.Hex()))
	if err != nil {
		return OperationRecord{}, err
	}
	return decodeReply[OperationRecord](reply)
}

// Batch returns the batch indexed under id.
func (c *Client) Batch(ctx context.Context, id ir.Identity) (BatchRecord, error) {
	ctx, cancel := c.ctx(ctx)
	defer cancel()

	reply, err := c.client.Batch(ctx, wrapperspb.String(id.Hex()))
	if err != nil {
		return BatchRecord{}, err
	}
	return decodeReply[BatchRecord](reply)
}
