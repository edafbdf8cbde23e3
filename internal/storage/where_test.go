package storage

import (
	"errors"
	"testing"
)

func TestQuote(t *testing.T) {
	tests := []struct{ in, want string }{
		{`plain`, `"plain"`},
		{`a "b"`, `"a \"b\""`},
		{`c:\dir`, `"c:\\dir"`},
		{`\"`, `"\\\""`},
	}
	for _, tt := range tests {
		if got := Quote(tt.in); got != tt.want {
			t.Errorf("Quote(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestAnd(t *testing.T) {
	if got := And(Eq("a", "1"), "", Eq("b", "2")); got != `a == "1" && b == "2"` {
		t.Errorf("And = %s", got)
	}
	if got := And(); got != "" {
		t.Errorf("And() = %q", got)
	}
}

func TestWhereRoundTripsEscapes(t *testing.T) {
	for _, lit := range []string{`simple`, `with "quotes"`, `back\slash`, `both \"`, `&& tricky ==`} {
		w, err := ParseWhere(Eq("title", lit))
		if err != nil {
			t.Fatalf("ParseWhere(%q): %v", lit, err)
		}
		if !w.Match(map[string]any{"title": lit}) {
			t.Errorf("clause for %q does not match its own literal", lit)
		}
		if w.Match(map[string]any{"title": lit + "x"}) {
			t.Errorf("clause for %q matches a different value", lit)
		}
	}
}

func TestWhereMatch(t *testing.T) {
	fm := map[string]any{"type": "task", "n": 3, "done": false}
	tests := []struct {
		expr string
		want bool
	}{
		{``, true},
		{`type == "task"`, true},
		{`type == "task" && n == 3`, true},
		{`type == "task" && n == 4`, false},
		{`done == false`, true},
		{`missing == ""`, true},
		{`missing != ""`, false},
		{`type != "command"`, true},
	}
	for _, tt := range tests {
		w, err := ParseWhere(tt.expr)
		if err != nil {
			t.Fatalf("ParseWhere(%q): %v", tt.expr, err)
		}
		if got := w.Match(fm); got != tt.want {
			t.Errorf("Match(%q) = %v, want %v", tt.expr, got, tt.want)
		}
	}
}

func TestParseWhereErrors(t *testing.T) {
	for _, expr := range []string{
		`== "x"`,
		`a = "x"`,
		`a == "x`,
		`a == "x" || b == "y"`,
		`a ==`,
		`a == "x\`,
	} {
		if _, err := ParseWhere(expr); !errors.Is(err, ErrBadWhere) {
			t.Errorf("ParseWhere(%q) error = %v, want ErrBadWhere", expr, err)
		}
	}
}
