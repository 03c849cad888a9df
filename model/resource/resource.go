// Package resource defines the identity type the kernel registers with the
// ledger.  A Handle is opaque and equality-comparable; the ledger never looks
// inside it.
package resource

import "github.com/viant/arbiter/internal/idgen"

// Handle identifies one countable resource (a semaphore, a device channel).
type Handle string

// New mints a fresh handle.
func New() Handle { return Handle(idgen.New()) }
