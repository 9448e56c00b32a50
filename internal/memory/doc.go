// Package memory implements the tiered context store.
//
// Three independent levels (Immediate, ShortTerm, LongTerm) each wrap a
// vector index plus a metadata table behind a per-level read/write lock.
// Each level enforces its own retention policy: Immediate evicts strict
// FIFO within a session, ShortTerm expires by TTL then evicts
// least-recently-accessed, LongTerm evicts least-recently-accessed with
// lower priority losing ties.
//
// The TierManager routes level-scoped operations and fans searches out to
// all levels in parallel, never holding more than one level's lock at a
// time. The Assembler turns merged candidates into a deterministic,
// token-budgeted result list.
package memory
