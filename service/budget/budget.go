// Package budget decides how much kernel work one host invocation may do.
package budget

import (
	"time"

	"github.com/viant/tickos/internal/clock"
)

// Policy limits the number of dispatches in one invocation. Begin is called
// once before the first dispatch; Allow is asked before every dispatch with
// the number of steps already taken.
type Policy interface {
	Begin()
	Allow(steps int) bool
}

type unlimited struct{}

func (unlimited) Begin()         {}
func (unlimited) Allow(int) bool { return true }

// Unlimited drains the kernel.
func Unlimited() Policy { return unlimited{} }

type stepLimit int

func (stepLimit) Begin() {}

func (s stepLimit) Allow(steps int) bool { return steps < int(s) }

// Steps allows at most n dispatches.
func Steps(n int) Policy { return stepLimit(n) }

type deadline struct {
	limit   time.Duration
	started time.Time
}

func (d *deadline) Begin() { d.started = clock.Now() }

func (d *deadline) Allow(int) bool { return clock.Since(d.started) < d.limit }

// Deadline allows dispatching until d has elapsed since Begin.
func Deadline(d time.Duration) Policy { return &deadline{limit: d} }

type all []Policy

func (a all) Begin() {
	for _, policy := range a {
		policy.Begin()
	}
}

func (a all) Allow(steps int) bool {
	for _, policy := range a {
		if !policy.Allow(steps) {
			return false
		}
	}
	return true
}

// All allows a step only when every policy does.
func All(policies ...Policy) Policy { return all(policies) }
