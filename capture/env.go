package capture

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// BuildEnv assembles the subprocess environment. With preserve set, the
// parent's environment is inherited and explicit overrides win over inherited
// values; otherwise the overrides are the whole environment.
func BuildEnv(preserve bool, overrides map[string]string) []string {
	merged := make(map[string]string)
	if preserve {
		for _, kv := range os.Environ() {
			if k, v, ok := strings.Cut(kv, "="); ok {
				merged[k] = v
			}
		}
	}
	for k, v := range overrides {
		merged[k] = v
	}

	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	env := make([]string, 0, len(keys))
	for _, k := range keys {
		env = append(env, k+"="+merged[k])
	}
	return env
}

// ParseEnvPairs parses command-line KEY=VALUE entries into a map. Later
// entries win over earlier ones for the same key.
func ParseEnvPairs(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	env := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid environment entry %q (expected KEY=VALUE)", pair)
		}
		env[k] = v
	}
	return env, nil
}
