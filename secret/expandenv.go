package secret

import (
	"fmt"
	"os"
	"slices"
	"strings"
)

const dollarSentinel = "\x00CHATOPS_DOLLAR\x00"

// ExpandEnvStrict expands $VAR, ${VAR} and ${VAR:-default} in s.
//
// A braced ${VAR} without a default must be set, otherwise every missing
// name is reported in one ErrMissingEnv. A bare $VAR expands to "" when
// unset. $$ emits a literal $.
func ExpandEnvStrict(s string) (string, error) {
	s = strings.ReplaceAll(s, "$$", dollarSentinel)

	var missing []string
	out := os.Expand(s, func(name string) string {
		key, fallback, hasDefault := strings.Cut(name, ":-")
		if value, ok := os.LookupEnv(key); ok && (value != "" || !hasDefault) {
			return value
		}
		if hasDefault {
			return fallback
		}
		if isBraced(s, name) && !slices.Contains(missing, key) {
			missing = append(missing, key)
		}
		return ""
	})
	if len(missing) > 0 {
		slices.Sort(missing)
		return "", fmt.Errorf("%w: %s", ErrMissingEnv, strings.Join(missing, ", "))
	}

	return strings.ReplaceAll(out, dollarSentinel, "$"), nil
}

func isBraced(s, name string) bool {
	return strings.Contains(s, "${"+name+"}")
}
