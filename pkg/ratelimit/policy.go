// Package ratelimit implements fixed-window attempt limiting keyed by action
// and client fingerprint, with pluggable counter storage.
package ratelimit

import (
	"strconv"
	"strings"
	"time"
)

// Action names a family of requests that share a budget.
type Action string

const (
	ActionLogin         Action = "login"
	ActionRegister      Action = "register"
	ActionPasswordReset Action = "passwordReset"
	ActionAPI           Action = "api"
	ActionDefault       Action = "default"
)

// Actions lists every built-in action.
var Actions = []Action{ActionLogin, ActionRegister, ActionPasswordReset, ActionAPI, ActionDefault}

type Policy struct {
	MaxAttempts    int
	Window         time.Duration
	SkipSuccessful bool // refund the attempt when the request succeeded
	SkipFailed     bool // refund the attempt when the request failed
}

// Policies maps actions to their budget. Unknown actions use ActionDefault.
type Policies map[Action]Policy

func (p Policies) For(a Action) Policy {
	if pol, ok := p[a]; ok {
		return pol
	}
	return p[ActionDefault]
}

// DefaultPolicies returns the built-in budgets. Outside production the
// budgets are far larger and additionally relaxed (see Relax).
func DefaultPolicies(production bool) Policies {
	pick := func(prod, dev int) int {
		if production {
			return prod
		}
		return dev
	}

	p := Policies{
		ActionLogin:         {MaxAttempts: pick(10, 1000), Window: 15 * time.Minute, SkipSuccessful: true},
		ActionRegister:      {MaxAttempts: pick(10, 1000), Window: 15 * time.Minute, SkipSuccessful: true},
		ActionPasswordReset: {MaxAttempts: pick(5, 1000), Window: 30 * time.Minute, SkipSuccessful: true},
		ActionAPI:           {MaxAttempts: pick(100, 10000), Window: 15 * time.Minute},
		ActionDefault:       {MaxAttempts: pick(20, 10000), Window: 15 * time.Minute},
	}
	if !production {
		for a, pol := range p {
			p[a] = Relax(pol)
		}
	}
	return p
}

// Relax doubles the budget (at least 20) and halves the window.
func Relax(p Policy) Policy {
	p.MaxAttempts = max(p.MaxAttempts*2, 20)
	p.Window /= 2
	return p
}

// WithEnv overlays RATELIMIT_<ACTION>_MAX and RATELIMIT_<ACTION>_WINDOW
// (a Go duration or whole seconds) read through getenv. Overrides are taken
// as-is and are not relaxed.
func (p Policies) WithEnv(getenv func(string) string) Policies {
	out := make(Policies, len(p))
	for a, pol := range p {
		prefix := "RATELIMIT_" + strings.ToUpper(string(a)) + "_"

		if n, err := strconv.Atoi(getenv(prefix + "MAX")); err == nil && n > 0 {
			pol.MaxAttempts = n
		}
		if w := getenv(prefix + "WINDOW"); w != "" {
			if d, err := time.ParseDuration(w); err == nil && d > 0 {
				pol.Window = d
			} else if secs, err := strconv.Atoi(w); err == nil && secs > 0 {
				pol.Window = time.Duration(secs) * time.Second
			}
		}
		out[a] = pol
	}
	return out
}
