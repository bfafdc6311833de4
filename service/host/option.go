package host

import (
	"github.com/viant/tickos/runtime/kernel"
	"github.com/viant/tickos/service/budget"
	"github.com/viant/tickos/service/dao"
	"github.com/viant/tickos/service/snapshot"
	"go.uber.org/zap"
)

// Option configures a Service.
type Option func(*Service)

// WithSnapshotDAO sets the snapshot store.
func WithSnapshotDAO(snapshotDAO dao.Service[string, snapshot.Snapshot]) Option {
	return func(s *Service) {
		s.snapshotDAO = snapshotDAO
	}
}

// WithCodec sets the snapshot codec.
func WithCodec(codec *snapshot.Codec) Option {
	return func(s *Service) {
		s.codec = codec
	}
}

// WithBudget sets the per-invocation budget.
func WithBudget(policy budget.Policy) Option {
	return func(s *Service) {
		s.budget = policy
	}
}

// WithLogger sets the logger shared with the kernel.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithStartTick sets the tick of a freshly created session.
func WithStartTick(tick uint32) Option {
	return func(s *Service) {
		s.startTick = tick
	}
}

// WithKernelOptions adds options applied to every restored kernel.
func WithKernelOptions(options ...kernel.Option) Option {
	return func(s *Service) {
		s.kernelOptions = append(s.kernelOptions, options...)
	}
}
