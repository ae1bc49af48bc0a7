package grpcapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/roach88/timelockidx/internal/ir"
	"github.com/roach88/timelockidx/internal/registry"
)

// Commands is the mutating side the server forwards to.
// *node.Node and *registry.Registry both satisfy it.
type Commands interface {
	Schedule(ctx context.Context, caller ir.Address, op ir.Operation) (ir.Identity, error)
	ScheduleBatch(ctx context.Context, caller ir.Address, b ir.OperationBatch) (ir.Identity, error)
	Cancel(ctx context.Context, caller ir.Address, id ir.Identity) error
	Execute(ctx context.Context, caller ir.Address, op ir.Operation) error
	ExecuteBatch(ctx context.Context, caller ir.Address, b ir.OperationBatch) error
}

// Server exposes a Registry over the Registry gRPC service.
type Server struct {
	UnimplementedRegistryServer
	Commands Commands
	Reads    *registry.Registry
}

func (s *Server) ready() error {
	if s == nil || s.Commands == nil || s.Reads == nil {
		return status.Error(codes.FailedPrecondition, "missing registry")
	}
	return nil
}

func (s *Server) Schedule(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.StringValue, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	var req ScheduleRequest
	if err := decodeJSON(in.GetValue(), &req); err != nil {
		return nil, invalidArgument(err)
	}
	id, err := s.Commands.Schedule(ctx, req.Caller, req.Operation)
	if err != nil {
		return nil, mapErr(err)
	}
	return wrapperspb.String(id.Hex()), nil
}

func (s *Server) ScheduleBatch(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.StringValue, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	var req ScheduleBatchRequest
	if err := decodeJSON(in.GetValue(), &req); err != nil {
		return nil, invalidArgument(err)
	}
	id, err := s.Commands.ScheduleBatch(ctx, req.Caller, req.Batch)
	if err != nil {
		return nil, mapErr(err)
	}
	return wrapperspb.String(id.Hex()), nil
}

func (s *Server) Cancel(ctx context.Context, in *wrapperspb.BytesValue) (*emptypb.Empty, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	var req CancelRequest
	if err := decodeJSON(in.GetValue(), &req); err != nil {
		return nil, invalidArgument(err)
	}
	if err := s.Commands.Cancel(ctx, req.Caller, req.ID); err != nil {
		return nil, mapErr(err)
	}
	return &emptypb.Empty{}, nil
}

func (s *Server) Execute(ctx context.Context, in *wrapperspb.BytesValue) (*emptypb.Empty, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	var req ExecuteRequest
	if err := decodeJSON(in.GetValue(), &req); err != nil {
		return nil, invalidArgument(err)
	}
	if err := s.Commands.Execute(ctx, req.Caller, req.Operation); err != nil {
		return nil, mapErr(err)
	}
	return &emptypb.Empty{}, nil
}

func (s *Server) ExecuteBatch(ctx context.Context, in *wrapperspb.BytesValue) (*emptypb.Empty, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	var req ExecuteBatchRequest
	if err := decodeJSON(in.GetValue(), &req); err != nil {
		return nil, invalidArgument(err)
	}
	if err := s.Commands.ExecuteBatch(ctx, req.Caller, req.Batch); err != nil {
		return nil, mapErr(err)
	}
	return &emptypb.Empty{}, nil
}

func (s *Server) OperationCount(context.Context, *emptypb.Empty) (*wrapperspb.Int64Value, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return wrapperspb.Int64(int64(s.Reads.OperationCount())), nil
}

func (s *Server) BatchCount(context.Context, *emptypb.Empty) (*wrapperspb.Int64Value, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return wrapperspb.Int64(int64(s.Reads.BatchCount())), nil
}

func (s *Server) Operations(context.Context, *emptypb.Empty) (*wrapperspb.BytesValue, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	snap := s.Reads.Snapshot()
	records := make([]OperationRecord, len(snap.Operations))
	for i, op := range snap.Operations {
		records[i] = OperationRecord{ID: snap.OperationIDs[i], Operation: op}
	}
	return encode(records)
}

func (s *Server) Batches(context.Context, *emptypb.Empty) (*wrapperspb.BytesValue, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	snap := s.Reads.Snapshot()
	records := make([]BatchRecord, len(snap.Batches))
	for i, b := range snap.Batches {
		records[i] = BatchRecord{ID: snap.BatchIDs[i], Batch: b}
	}
	return encode(records)
}

func (s *Server) OperationAt(_ context.Context, in *wrapperspb.Int64Value) (*wrapperspb.BytesValue, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	id, op, err := s.Reads.OperationAtWithID(int(in.GetValue()))
	if err != nil {
		return nil, mapErr(err)
	}
	return encode(OperationRecord{ID: id, Operation: op})
}

func (s *Server) BatchAt(_ context.Context, in *wrapperspb.Int64Value) (*wrapperspb.BytesValue, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	id, b, err := s.Reads.BatchAtWithID(int(in.GetValue()))
	if err != nil {
		return nil, mapErr(err)
	}
	return encode(BatchRecord{ID: id, Batch: b})
}

func (s *Server) Operation(_ context.Context, in *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	id, err := ParseIdentity(in.GetValue())
	if err != nil {
		return nil, invalidArgument(err)
	}
	op, err := s.Reads.Operation(id)
	if err != nil {
		return nil, mapErr(err)
	}
	return encode(OperationRecord{ID: id, Operation: op})
}

func (s *Server) Batch(_ context.Context, in *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	id, err := ParseIdentity(in.GetValue())
	if err != nil {
		return nil, invalidArgument(err)
	}
	b, err := s.Reads.Batch(id)
	if err != nil {
		return nil, mapErr(err)
	}
	return encode(BatchRecord{ID: id, Batch: b})
}

func encode(v any) (*wrapperspb.BytesValue, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return wrapperspb.Bytes(data), nil
}

// LoggingInterceptor logs every unary call with its status code and latency.
func LoggingInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)
		level := slog.LevelDebug
		if code != codes.OK {
			level = slog.LevelInfo
		}
		if code == codes.Internal {
			level = slog.LevelError
		}
		logger.Log(ctx, level, "rpc",
			"method", info.FullMethod,
			"code", code.String(),
			"duration", time.Since(start),
		)
		return resp, err
	}
}
