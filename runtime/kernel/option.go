package kernel

import (
	"github.com/viant/tickos/model/task"
	"go.uber.org/zap"
)

// Listener observes every task handed to a resident process.
type Listener func(tick uint32, t task.Task)

// Option configures a Kernel. Options are not persisted.
type Option func(k *Kernel)

// WithLogger sets the logger used for process failures and dropped tasks.
func WithLogger(logger *zap.Logger) Option {
	return func(k *Kernel) {
		k.logger = logger
	}
}

// WithListener adds a dispatch listener; listeners run in registration order.
func WithListener(listener Listener) Option {
	return func(k *Kernel) {
		k.listeners = append(k.listeners, listener)
	}
}
