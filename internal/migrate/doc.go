// Package migrate implements a version-controlled, transactional,
// drift-detecting schema migration engine.
//
// Definitions pair a forward and a reverse operation under a fixed-width
// version. The Registry validates and orders them; the Ledger persists which
// versions are applied (with a content fingerprint and timing) and hosts the
// cross-process lock; the Runner applies the pending tail in ascending order,
// one transaction per migration; the RollbackEngine undoes applied versions
// in descending order under the same lock discipline; the StatusReporter
// renders both views without locking.
//
// Failure semantics are fail-fast: the first failing migration aborts the
// remaining batch, already-committed migrations stay in place, and the next
// invocation resumes from the pending tail.
package migrate
