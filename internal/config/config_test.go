package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_trimsAndDefaultsBranch(t *testing.T) {
	cfg := New("  alice ", " league ", "  ", "\ttoken\n")
	require.Equal(t, Config{Owner: "alice", Repo: "league", Branch: "main", Token: "token"}, cfg)

	cfg = New("a", "b", " dev ", "t")
	require.Equal(t, "dev", cfg.Branch)
}

func TestConnected(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want bool
	}{
		{"all set", New("a", "b", "", "t"), true},
		{"no owner", New("", "b", "", "t"), false},
		{"no repo", New("a", "", "", "t"), false},
		{"no token", New("a", "b", "", ""), false},
		{"whitespace only", New("  ", " ", "", " "), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.cfg.Connected())
		})
	}
}
