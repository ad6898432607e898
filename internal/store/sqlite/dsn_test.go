package sqlite

import "testing"

func TestParseDSN(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{name: "memory", input: "sqlite://:memory:", expected: ":memory:"},
		{name: "absolute", input: "sqlite:///var/lib/lore.db", expected: "/var/lib/lore.db"},
		{name: "dot relative", input: "sqlite://./lore.db", expected: "./lore.db"},
		{name: "bare relative", input: "sqlite://lore.db", expected: "./lore.db"},
		{name: "escaped", input: "sqlite://my%20lore.db", expected: "./my lore.db"},
		{name: "query kept", input: "sqlite://lore.db?_pragma=foreign_keys(1)", expected: "./lore.db?_pragma=foreign_keys(1)"},
		{name: "wrong scheme", input: "postgres://localhost/lore", wantErr: true},
		{name: "empty path", input: "sqlite://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDSN(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("parseDSN(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
