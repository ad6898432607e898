package macro

import "testing"

func TestSubstitute(t *testing.T) {
	s := Substituter{User: "Traveler", Char: "Seraphina"}
	tests := []struct {
		in   string
		want string
	}{
		{"{{char}} greets {{user}}.", "Seraphina greets Traveler."},
		{"{{CHAR}} and {{User}}", "Seraphina and Traveler"},
		{"<BOT> sees <USER>", "Seraphina sees Traveler"},
		{"<bot> sees <user>", "Seraphina sees Traveler"},
		{"no macros here", "no macros here"},
		{"{{unknown}} <b>", "{{unknown}} <b>"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := s.Substitute(tt.in); got != tt.want {
			t.Errorf("Substitute(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSubstituteIdempotentWithoutMacros(t *testing.T) {
	s := Substituter{User: "Traveler", Char: "Seraphina"}
	once := s.Substitute("{{char}} walks the glade")
	if twice := s.Substitute(once); twice != once {
		t.Errorf("second pass changed text: %q -> %q", once, twice)
	}
}
