package host

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/viant/tickos/model/process"
	"github.com/viant/tickos/model/task"
	"github.com/viant/tickos/progress"
	"github.com/viant/tickos/runtime/kernel"
	"github.com/viant/tickos/service/budget"
	"github.com/viant/tickos/service/dao"
	snapshotmemory "github.com/viant/tickos/service/dao/snapshot/memory"
	"github.com/viant/tickos/service/snapshot"
	"github.com/viant/tickos/tracing"
	"go.uber.org/zap"
)

// Report summarises one invocation.
type Report struct {
	SessionID string `json:"sessionId"`
	// Tick is the tick the kernel was advanced to.
	Tick      uint32 `json:"tick"`
	Steps     int    `json:"steps"`
	Exhausted bool   `json:"exhausted"`
	Processes int    `json:"processes"`
	Pending   int    `json:"pending"`
}

// Service hosts one session.
type Service struct {
	sessionID     string
	factory       process.Factory
	snapshotDAO   dao.Service[string, snapshot.Snapshot]
	codec         *snapshot.Codec
	budget        budget.Policy
	logger        *zap.Logger
	startTick     uint32
	kernelOptions []kernel.Option
	progress      *progress.Progress
	mu            sync.Mutex
}

// New creates a host for sessionID. Without options snapshots are kept in
// memory and every invocation drains the kernel.
func New(sessionID string, factory process.Factory, options ...Option) *Service {
	ret := &Service{sessionID: sessionID, factory: factory}
	for _, option := range options {
		option(ret)
	}
	if ret.snapshotDAO == nil {
		ret.snapshotDAO = snapshotmemory.New()
	}
	if ret.codec == nil {
		ret.codec = snapshot.New()
	}
	if ret.budget == nil {
		ret.budget = budget.Unlimited()
	}
	if ret.logger == nil {
		ret.logger = zap.NewNop()
	}
	ret.logger = ret.logger.With(zap.String("session", sessionID))
	ret.progress = progress.New(sessionID, nil)
	return ret
}

// Progress returns the dispatch counters of this host.
func (s *Service) Progress() *progress.Progress { return s.progress }

// SessionID returns the hosted session id.
func (s *Service) SessionID() string { return s.sessionID }

// Invoke runs one external tick.
func (s *Service) Invoke(ctx context.Context) (report *Report, err error) {
	ctx, span := tracing.StartSpan(progress.WithTracker(ctx, s.progress), "tickos.invoke")
	defer func() { tracing.EndSpan(span, err) }()
	span.WithAttributes(map[string]string{"session": s.sessionID})

	s.mu.Lock()
	defer s.mu.Unlock()

	// counted dispatches only become progress once the kernel is saved
	delta := progress.Delta{Invocations: 1}
	k, err := s.load(ctx, kernel.WithListener(func(_ uint32, t task.Task) { delta.Count(t) }))
	if err != nil {
		return nil, err
	}
	steps := 0
	s.budget.Begin()
	exhausted := false
	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !s.budget.Allow(steps) {
			exhausted = k.Pending() > 0
			break
		}
		if !k.RunNext(s.factory) {
			break
		}
		steps++
	}
	k.NextTick()
	if err = s.save(ctx, k); err != nil {
		return nil, err
	}
	if exhausted {
		delta.Exhausted = 1
	}
	progress.UpdateCtx(ctx, delta)
	report = &Report{
		SessionID: s.sessionID,
		Tick:      k.Tick(),
		Steps:     steps,
		Exhausted: exhausted,
		Processes: k.Len(),
		Pending:   k.Pending(),
	}
	span.WithInt("steps", steps).WithInt("processes", report.Processes)
	s.logger.Info("invocation finished",
		zap.Uint32("tick", report.Tick),
		zap.Int("steps", steps),
		zap.Bool("exhausted", exhausted),
		zap.Int("processes", report.Processes))
	return report, nil
}

// Launch adds a top-level process to the session. It starts on the next
// invocation.
func (s *Service) Launch(ctx context.Context, proc process.Process) (process.Pid, error) {
	if proc == nil {
		return 0, fmt.Errorf("process was nil")
	}
	var pid process.Pid
	err := s.update(ctx, func(k *kernel.Kernel) error {
		pid = k.Launch(proc, nil)
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.logger.Debug("launched process", zap.Uint32("pid", uint32(pid)), zap.Uint32("typeTag", uint32(proc.TypeTag())))
	return pid, nil
}

// Send queues a message for pid; it is delivered on the next invocation.
func (s *Service) Send(ctx context.Context, pid process.Pid, body []byte) error {
	return s.update(ctx, func(k *kernel.Kernel) error {
		return k.Send(pid, process.NewMessage(body))
	})
}

// Terminate kills pid and its descendants.
func (s *Service) Terminate(ctx context.Context, pid process.Pid) error {
	return s.update(ctx, func(k *kernel.Kernel) error {
		if _, ok := k.Info(pid); !ok {
			return fmt.Errorf("%w: %d", kernel.ErrUnknownProcess, pid)
		}
		k.Terminate(pid, s.factory)
		return nil
	})
}

// Kernel returns the stored kernel, or a fresh one for a new session.
func (s *Service) Kernel(ctx context.Context) (*kernel.Kernel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *Service) update(ctx context.Context, fn func(k *kernel.Kernel) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k, err := s.load(ctx)
	if err != nil {
		return err
	}
	if err = fn(k); err != nil {
		return err
	}
	return s.save(ctx, k)
}

func (s *Service) load(ctx context.Context, extra ...kernel.Option) (*kernel.Kernel, error) {
	options := []kernel.Option{kernel.WithLogger(s.logger)}
	options = append(options, extra...)
	options = append(options, s.kernelOptions...)
	stored, err := s.snapshotDAO.Load(ctx, s.sessionID)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			s.logger.Info("starting new session", zap.Uint32("tick", s.startTick))
			return kernel.New(s.startTick, options...), nil
		}
		return nil, fmt.Errorf("failed to load session %s: %w", s.sessionID, err)
	}
	return s.codec.Decode(stored, options...)
}

func (s *Service) save(ctx context.Context, k *kernel.Kernel) error {
	encoded, err := s.codec.Encode(s.sessionID, k)
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", s.sessionID, err)
	}
	if err = s.snapshotDAO.Save(ctx, encoded); err != nil {
		return fmt.Errorf("failed to save session %s: %w", s.sessionID, err)
	}
	s.logger.Debug("saved snapshot", zap.Int("bytes", len(encoded.Data)), zap.Uint32("tick", k.Tick()))
	return nil
}
