// Package policy provides a simple, optional per-syscall approval layer that
// can be attached to a dispatch via context.  It is deliberately decoupled
// from the rest of the core so that using it is entirely opt-in – dispatchers
// that do not embed the Policy in their context keep the "auto" behaviour.

package policy

import (
	"context"
	"strings"
)

// Dispatch modes recognised by the syscall layer.
const (
	ModeAsk  = "ask"  // ask before every syscall
	ModeAuto = "auto" // dispatch automatically (default)
	ModeDeny = "deny" // block dispatch
)

// AskFunc is invoked when Mode==ask, and on unsafe-admission escalation when
// the caller opts in.  Returning true approves the syscall, false rejects it.
// Implementations MAY mutate the policy (for example, switching to ModeAuto
// after the first approval).
type AskFunc func(
	ctx context.Context,
	syscall string, // symbolic syscall name
	taskID int, // issuing task
	p *Policy,
) bool

// Policy represents the approval settings applied during syscall dispatch.
//
//   - Mode controls the high-level behaviour (ask / auto / deny).
//   - AllowList, BlockList allow coarse filtering regardless of Mode.
//   - Ask is only used when Mode==ask.
//
// A nil *Policy means "dispatch everything automatically" and is therefore
// the zero-cost default.
type Policy struct {
	Mode      string   // ask / auto / deny      (default = auto)
	AllowList []string // whitelist (empty => all)
	BlockList []string // blacklist
	Ask       AskFunc  // used only when Mode==ask
}

// Config represents the declarative, serialisable part of a Policy (a Policy
// with AskFunc cannot be persisted).
type Config struct {
	Mode      string   `json:"mode,omitempty" yaml:"mode,omitempty"`
	AllowList []string `json:"allow,omitempty" yaml:"allow,omitempty"`
	BlockList []string `json:"block,omitempty" yaml:"block,omitempty"`
}

// ToConfig converts a runtime Policy into a persistable Config.
func ToConfig(p *Policy) *Config {
	if p == nil {
		return nil
	}
	return &Config{
		Mode:      p.Mode,
		AllowList: append([]string(nil), p.AllowList...),
		BlockList: append([]string(nil), p.BlockList...),
	}
}

// FromConfig converts a stored Config back to a runtime Policy (without
// AskFunc).
func FromConfig(c *Config) *Policy {
	if c == nil {
		return nil
	}
	return &Policy{
		Mode:      c.Mode,
		AllowList: append([]string(nil), c.AllowList...),
		BlockList: append([]string(nil), c.BlockList...),
	}
}

// IsAllowed evaluates AllowList / BlockList.  Both lists match by exact,
// case-insensitive comparison of the symbolic syscall name.
func (p *Policy) IsAllowed(syscall string) bool {
	if p == nil {
		return true
	}

	normalized := strings.ToLower(syscall)

	// BlockList has priority.
	for _, b := range p.BlockList {
		if normalized == strings.ToLower(b) {
			return false
		}
	}

	// AllowList – if empty everything is allowed, otherwise only the
	// listed entries.
	if len(p.AllowList) == 0 {
		return true
	}
	for _, a := range p.AllowList {
		if normalized == strings.ToLower(a) {
			return true
		}
	}
	return false
}

type ctxKeyT struct{}

var ctxKey ctxKeyT

// WithPolicy embeds policy in ctx.
func WithPolicy(ctx context.Context, p *Policy) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey, p)
}

// FromContext extracts the policy when present.
func FromContext(ctx context.Context) *Policy {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxKey).(*Policy); ok {
		return v
	}
	return nil
}
