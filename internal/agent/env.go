package agent

import (
	"fmt"
	"os"
	"sort"
)

// ExpandEnv returns the current environment plus env, with ${VAR} and $VAR
// references in the values expanded. A nil or empty env yields nil, which
// makes the child inherit the environment unchanged.
func ExpandEnv(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}

	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := os.Environ()
	for _, k := range keys {
		out = append(out, fmt.Sprintf("%s=%s", k, os.ExpandEnv(env[k])))
	}
	return out
}
