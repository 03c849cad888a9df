// Package ledger implements a banker's-algorithm resource ledger.  It tracks,
// per task and per registered resource, the declared maximum, the current
// allocation and the outstanding need, together with a system-wide
// availability vector.  Admission of a speculative request is decided by the
// classical finish-simulation safety check so that a granted request can never
// introduce a circular wait.
//
// The ledger accounts for abstract countable resources by identity only; it
// performs no physical allocation.  Callers decide what to do with a negative
// admission verdict (deny, queue, retry) – the ledger itself never blocks.
package ledger
