package tickos

import (
	"context"
	"fmt"
	"io"

	"github.com/viant/tickos/internal/idgen"
	"github.com/viant/tickos/model/process"
	"github.com/viant/tickos/runtime/kernel"
	"github.com/viant/tickos/service/budget"
	"github.com/viant/tickos/service/dao"
	"github.com/viant/tickos/service/dao/snapshot/bolt"
	"github.com/viant/tickos/service/dao/snapshot/fs"
	"github.com/viant/tickos/service/dao/snapshot/memory"
	"github.com/viant/tickos/service/host"
	"github.com/viant/tickos/service/snapshot"
	"github.com/viant/tickos/tracing"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Service creates session hosts sharing one store, codec and budget.
type Service struct {
	factory       process.Factory
	snapshotDAO   dao.Service[string, snapshot.Snapshot]
	codec         *snapshot.Codec
	budget        func() budget.Policy
	logger        *zap.Logger
	startTick     uint32
	kernelOptions []kernel.Option
	closers       []io.Closer
}

func (s *Service) init(options []Option) {
	for _, option := range options {
		option(s)
	}
	if s.snapshotDAO == nil {
		s.snapshotDAO = memory.New()
	}
	if s.codec == nil {
		s.codec = snapshot.New()
	}
	if s.budget == nil {
		s.budget = budget.Unlimited
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
}

// New creates a service for programs built by factory.
func New(factory process.Factory, options ...Option) *Service {
	ret := &Service{factory: factory}
	ret.init(options)
	return ret
}

// NewFromConfig builds a service from cfg. Options are applied after the
// configuration and win over it.
func NewFromConfig(factory process.Factory, cfg *Config, options ...Option) (*Service, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var configured []Option
	var closers []io.Closer

	switch cfg.Store.Kind {
	case StoreFS:
		store, err := fs.New(cfg.Store.URL)
		if err != nil {
			return nil, err
		}
		configured = append(configured, WithSnapshotDAO(store))
	case StoreBolt:
		store, err := bolt.Open(cfg.Store.URL)
		if err != nil {
			return nil, err
		}
		closers = append(closers, store)
		configured = append(configured, WithSnapshotDAO(store))
	}

	var codecOptions []snapshot.Option
	if cfg.Snapshot.Compression {
		codecOptions = append(codecOptions, snapshot.WithCompression(cfg.Snapshot.Quality))
	}
	codecOptions = append(codecOptions, snapshot.WithChecksum(cfg.Snapshot.Checksum))
	configured = append(configured, WithCodec(snapshot.New(codecOptions...)))

	if cfg.Budget.Steps > 0 || cfg.Budget.Deadline > 0 {
		budgetConfig := cfg.Budget
		configured = append(configured, WithBudgetFunc(func() budget.Policy {
			var policies []budget.Policy
			if budgetConfig.Steps > 0 {
				policies = append(policies, budget.Steps(budgetConfig.Steps))
			}
			if budgetConfig.Deadline > 0 {
				policies = append(policies, budget.Deadline(budgetConfig.Deadline))
			}
			return budget.All(policies...)
		}))
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return nil, multierr.Append(err, closeAll(closers))
	}
	configured = append(configured, WithLogger(logger), WithStartTick(cfg.StartTick))

	if cfg.Tracing.Enabled {
		if err := tracing.Init(cfg.Tracing.ServiceName, cfg.Tracing.ServiceVersion, cfg.Tracing.OutputFile); err != nil {
			return nil, multierr.Append(fmt.Errorf("failed to init tracing: %w", err), closeAll(closers))
		}
	}

	ret := &Service{factory: factory, closers: closers}
	ret.init(append(configured, options...))
	return ret, nil
}

func newLogger(cfg LogConfig) (*zap.Logger, error) {
	if cfg.Level == "" {
		return zap.NewNop(), nil
	}
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	zapConfig := zap.NewProductionConfig()
	if cfg.Development {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)
	return zapConfig.Build()
}

// Host returns the host of sessionID; an empty id starts a new session.
func (s *Service) Host(sessionID string) *host.Service {
	if sessionID == "" {
		sessionID = idgen.New()
	}
	return host.New(sessionID, s.factory,
		host.WithSnapshotDAO(s.snapshotDAO),
		host.WithCodec(s.codec),
		host.WithBudget(s.budget()),
		host.WithLogger(s.logger),
		host.WithStartTick(s.startTick),
		host.WithKernelOptions(s.kernelOptions...),
	)
}

// Sessions lists the stored snapshots.
func (s *Service) Sessions(ctx context.Context, parameters ...*dao.Parameter) ([]*snapshot.Snapshot, error) {
	return s.snapshotDAO.List(ctx, parameters...)
}

// Codec returns the snapshot codec.
func (s *Service) Codec() *snapshot.Codec { return s.codec }

// Close releases the store and flushes the logger.
func (s *Service) Close() error {
	err := closeAll(s.closers)
	s.closers = nil
	_ = s.logger.Sync()
	return err
}

func closeAll(closers []io.Closer) error {
	var err error
	for _, closer := range closers {
		err = multierr.Append(err, closer.Close())
	}
	return err
}
