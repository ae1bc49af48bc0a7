// Package daemon wires the journal, node and gRPC service together using
// go.uber.org/dig and runs them until the context is cancelled.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"

	"go.uber.org/dig"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/roach88/timelockidx/internal/config"
	"github.com/roach88/timelockidx/internal/engine"
	"github.com/roach88/timelockidx/internal/grpcapi"
	"github.com/roach88/timelockidx/internal/logging"
	"github.com/roach88/timelockidx/internal/node"
	"github.com/roach88/timelockidx/internal/store"
)

// Daemon holds the resolved service singletons.
type Daemon struct {
	cfg    config.Config
	logger *slog.Logger
	store  *store.Store
	node   *node.Node
	server *grpc.Server
}

func (d *Daemon) Config() config.Config { return d.cfg }
func (d *Daemon) Logger() *slog.Logger  { return d.logger }
func (d *Daemon) Node() *node.Node      { return d.node }

// Option customises New.
type Option func(*settings)

type settings struct {
	logOutput io.Writer
	clock     engine.Clock
	calls     engine.CallExecutor
}

// WithLogOutput sets where the process logger writes. Defaults to stderr.
func WithLogOutput(w io.Writer) Option {
	return func(s *settings) { s.logOutput = w }
}

// WithClock overrides the live clock.
func WithClock(c engine.Clock) Option {
	return func(s *settings) { s.clock = c }
}

// WithCallExecutor sets where executed calls are forwarded.
func WithCallExecutor(x engine.CallExecutor) Option {
	return func(s *settings) { s.calls = x }
}

// New opens the journal named by cfg.Database, replays it and prepares the
// gRPC server. The caller must Close the daemon.
func New(ctx context.Context, cfg config.Config, opts ...Option) (*Daemon, error) {
	s := settings{
		logOutput: os.Stderr,
		clock:     engine.SystemClock{},
		calls:     engine.DiscardExecutor{},
	}
	for _, opt := range opts {
		opt(&s)
	}

	c := dig.New()
	providers := []any{
		func() context.Context { return ctx },
		func() config.Config { return cfg },
		func() settings { return s },
		newLogger,
		newStore,
		newNode,
		newServer,
	}
	for _, p := range providers {
		if err := c.Provide(p); err != nil {
			return nil, err
		}
	}

	var d *Daemon
	err := c.Invoke(func(logger *slog.Logger, st *store.Store, n *node.Node, srv *grpc.Server) {
		d = &Daemon{cfg: cfg, logger: logger, store: st, node: n, server: srv}
	})
	if err != nil {
		return nil, fmt.Errorf("wire daemon: %w", dig.RootCause(err))
	}
	return d, nil
}

func newLogger(cfg config.Config, s settings) (*slog.Logger, error) {
	return logging.New(s.logOutput, cfg.Log.Level, cfg.Log.Format)
}

func newStore(cfg config.Config) (*store.Store, error) {
	return store.Open(cfg.Database)
}

func newNode(ctx context.Context, cfg config.Config, s settings, st *store.Store, logger *slog.Logger) (*node.Node, error) {
	n, err := node.Open(ctx, st,
		node.WithMinDelay(cfg.MinDelayDuration()),
		node.WithRoles(cfg.Roles()),
		node.WithClock(s.clock),
		node.WithCallExecutor(s.calls),
		node.WithLogger(logger),
	)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	return n, nil
}

func newServer(n *node.Node, logger *slog.Logger) *grpc.Server {
	srv := grpc.NewServer(grpc.UnaryInterceptor(grpcapi.LoggingInterceptor(logger)))
	grpcapi.RegisterRegistryServer(srv, &grpcapi.Server{Commands: n, Reads: n.Registry()})
	return srv
}

// Run listens on the configured address and serves until ctx is cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", d.cfg.Listen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", d.cfg.Listen, err)
	}
	return d.Serve(ctx, lis)
}

// Serve serves on lis until ctx is cancelled, then stops gracefully.
func (d *Daemon) Serve(ctx context.Context, lis net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	d.logger.Info("daemon starting",
		"addr", lis.Addr().String(),
		"database", d.cfg.Database,
		"operations", d.node.Registry().OperationCount(),
		"batches", d.node.Registry().BatchCount(),
	)

	g.Go(func() error {
		if err := d.server.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		d.server.GracefulStop()
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	d.logger.Info("daemon stopped")
	return nil
}

// Close stops the server and closes the journal.
func (d *Daemon) Close() error {
	d.server.Stop()
	return d.store.Close()
}
