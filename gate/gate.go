package gate

import (
	"context"
	"log/slog"
	"strconv"
)

// EnabledFlag is the feature flag consulted before every turn. An absent
// flag counts as enabled so a fresh deployment serves traffic without any
// etcd seeding.
const EnabledFlag = "agent_enabled"

// Decision is the outcome of one admission check.
type Decision struct {
	// Allowed reports whether the turn may run.
	Allowed bool

	// Reason explains a denial. Empty when allowed.
	Reason string
}

// Gate decides whether a session may run a turn. The decision combines an
// operator-managed feature flag with an optional compiled session rule; both
// must pass. Flag read failures deny closed and are logged, so a flag store
// outage never silently opens the gate.
type Gate struct {
	flags  FlagStore
	rule   *Rule
	logger *slog.Logger
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithRule sets the session admission rule. Without one, only the feature
// flag is consulted.
func WithRule(rule *Rule) GateOption {
	return func(g *Gate) {
		g.rule = rule
	}
}

// WithGateLogger sets the logger for denied checks.
func WithGateLogger(logger *slog.Logger) GateOption {
	return func(g *Gate) {
		g.logger = logger
	}
}

// New creates a Gate over the given flag store.
func New(flags FlagStore, opts ...GateOption) *Gate {
	g := &Gate{
		flags:  flags,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Check evaluates the flag and rule for the session attributes.
func (g *Gate) Check(ctx context.Context, sessionID string, attrs map[string]any) (Decision, error) {
	value, found, err := g.flags.Get(ctx, EnabledFlag)
	if err != nil {
		g.logger.Warn("flag read failed, denying turn",
			"session_id", sessionID,
			"flag", EnabledFlag,
			"error", err)
		return Decision{Reason: "feature flag unavailable"}, err
	}

	if found {
		enabled, parseErr := strconv.ParseBool(value)
		if parseErr != nil || !enabled {
			g.logger.Info("turn denied by feature flag",
				"session_id", sessionID,
				"flag", EnabledFlag,
				"value", value)
			return Decision{Reason: "agent disabled by feature flag"}, nil
		}
	}

	if g.rule != nil {
		allowed, err := g.rule.Allow(attrs)
		if err != nil {
			g.logger.Warn("rule evaluation failed, denying turn",
				"session_id", sessionID,
				"rule", g.rule.Expr(),
				"error", err)
			return Decision{Reason: "admission rule unavailable"}, err
		}
		if !allowed {
			g.logger.Info("turn denied by admission rule",
				"session_id", sessionID,
				"rule", g.rule.Expr())
			return Decision{Reason: "session denied by admission rule"}, nil
		}
	}

	return Decision{Allowed: true}, nil
}
