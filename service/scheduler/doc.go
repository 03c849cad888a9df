// Package scheduler owns the pick-next-task loop.  It only drives lifecycle
// transitions on the task table – whether a task *may* run is decided by the
// table's guards, and resource admission stays with the ledger.  The pick
// policy is plain round-robin; anything smarter belongs to the embedding
// host.
package scheduler
