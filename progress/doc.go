// Package progress keeps aggregated dispatch counters for a hosted session.
// The tracker can travel in a context so that any component handling an
// invocation can update it without a global registry.
package progress
