package tickos

import (
	"github.com/viant/tickos/runtime/kernel"
	"github.com/viant/tickos/service/budget"
	"github.com/viant/tickos/service/dao"
	"github.com/viant/tickos/service/snapshot"
	"github.com/viant/tickos/tracing"
	"go.uber.org/zap"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option configures a Service.
type Option func(s *Service)

// WithSnapshotDAO sets the snapshot store shared by every session.
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

// WithBudget sets the per-invocation budget. A stateful policy such as
// budget.Deadline must not be shared by concurrently invoked sessions; use
// WithBudgetFunc instead.
func WithBudget(policy budget.Policy) Option {
	return func(s *Service) {
		s.budget = func() budget.Policy { return policy }
	}
}

// WithBudgetFunc sets a constructor called once per session host.
func WithBudgetFunc(fn func() budget.Policy) Option {
	return func(s *Service) {
		s.budget = fn
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithStartTick sets the first tick of new sessions.
func WithStartTick(tick uint32) Option {
	return func(s *Service) {
		s.startTick = tick
	}
}

// WithKernelOptions adds options applied to every kernel a session restores.
func WithKernelOptions(options ...kernel.Option) Option {
	return func(s *Service) {
		s.kernelOptions = append(s.kernelOptions, options...)
	}
}

// WithTracing configures OpenTelemetry tracing with the stdout exporter, or a
// file when outputFile is set. The first successful initialisation wins.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Service) {
		_ = tracing.Init(serviceName, serviceVersion, outputFile)
	}
}

// WithTracingExporter configures OpenTelemetry tracing with a custom exporter.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		_ = tracing.InitWithExporter(serviceName, serviceVersion, exporter)
	}
}
