// Package host drives one kernel session: every invocation restores the
// stored snapshot, dispatches tasks while the budget allows, advances the
// tick and stores the kernel again.
package host
