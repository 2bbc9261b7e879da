package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileRule(t *testing.T) {
	tests := []struct {
		name    string
		expr    string
		wantErr bool
	}{
		{name: "boolean comparison", expr: `session.plan == "pro"`},
		{name: "numeric predicate", expr: `session.turns < 20`},
		{name: "compound", expr: `session.plan == "pro" && session.turns < 100`},
		{name: "syntax error", expr: `session.plan ==`, wantErr: true},
		{name: "non-boolean output", expr: `session.plan`, wantErr: true},
		{name: "unknown variable", expr: `user.plan == "pro"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, err := CompileRule(tt.expr)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expr, rule.Expr())
		})
	}
}

func TestRule_Allow(t *testing.T) {
	rule, err := CompileRule(`session.plan == "pro"`)
	require.NoError(t, err)

	allowed, err := rule.Allow(map[string]any{"plan": "pro"})
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = rule.Allow(map[string]any{"plan": "free"})
	require.NoError(t, err)
	assert.False(t, allowed)
}
