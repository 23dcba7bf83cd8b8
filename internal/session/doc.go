// Package session keeps per-client upload sessions in memory.
//
// A session owns the benchmark table its batches are compared against and
// the merged dataset of its most recent batch. The benchmark is replaced
// only by a successful load and cleared only on request. Idle sessions are
// swept after the configured TTL.
package session
