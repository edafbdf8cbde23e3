package token

import (
	"errors"
	"strings"
	"testing"

	providererrors "github.com/valksor/go-opsdesk/internal/provider/errors"
)

func TestResolve(t *testing.T) {
	t.Run("override var has priority", func(t *testing.T) {
		t.Setenv("OPSDESK_TEST_TOKEN", "override")
		t.Setenv("TEST_TOKEN", "default")

		tok, err := Resolve(Config("test", "TEST_TOKEN").WithConfigToken("config"))
		if err != nil {
			t.Fatalf("Resolve error = %v", err)
		}
		if tok != "override" {
			t.Errorf("token = %q, want %q", tok, "override")
		}
	})

	t.Run("conventional env var", func(t *testing.T) {
		t.Setenv("OPSDESK_TEST_TOKEN", "")
		t.Setenv("TEST_TOKEN", " default ")

		tok, err := Resolve(Config("test", "TEST_TOKEN").WithConfigToken("config"))
		if err != nil {
			t.Fatalf("Resolve error = %v", err)
		}
		if tok != "default" {
			t.Errorf("token = %q, want %q", tok, "default")
		}
	})

	t.Run("config token", func(t *testing.T) {
		t.Setenv("OPSDESK_TEST_TOKEN", "")
		t.Setenv("TEST_TOKEN", "")

		tok, err := Resolve(Config("test", "TEST_TOKEN").WithConfigToken("config"))
		if err != nil {
			t.Fatalf("Resolve error = %v", err)
		}
		if tok != "config" {
			t.Errorf("token = %q, want %q", tok, "config")
		}
	})

	t.Run("cli fallback", func(t *testing.T) {
		t.Setenv("OPSDESK_TEST_TOKEN", "")
		t.Setenv("TEST_TOKEN", "")

		tok, err := Resolve(Config("test", "TEST_TOKEN").WithCLIFallback(func() string { return "from-cli" }))
		if err != nil {
			t.Fatalf("Resolve error = %v", err)
		}
		if tok != "from-cli" {
			t.Errorf("token = %q, want %q", tok, "from-cli")
		}
	})

	t.Run("missing credential", func(t *testing.T) {
		t.Setenv("OPSDESK_TEST_TOKEN", "")
		t.Setenv("TEST_TOKEN", "")

		_, err := Resolve(Config("test", "TEST_TOKEN").WithCLIFallback(func() string { return "" }))
		if !errors.Is(err, providererrors.ErrMissingCredential) {
			t.Fatalf("Resolve error = %v, want ErrMissingCredential", err)
		}
		if !strings.Contains(err.Error(), "TEST_TOKEN") {
			t.Errorf("error %q does not name the env var", err.Error())
		}
	})
}

func TestOverrideVar(t *testing.T) {
	if got := Config("gitlab").OverrideVar(); got != "OPSDESK_GITLAB_TOKEN" {
		t.Errorf("OverrideVar = %q", got)
	}
}

func TestEnv(t *testing.T) {
	t.Setenv("FIRST_VAR", "")
	t.Setenv("SECOND_VAR", "value")

	if got := Env("FIRST_VAR", "SECOND_VAR"); got != "value" {
		t.Errorf("Env = %q, want %q", got, "value")
	}
	if got := Env("FIRST_VAR"); got != "" {
		t.Errorf("Env = %q, want empty", got)
	}
}
