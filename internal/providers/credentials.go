package providers

import (
	"fmt"
	"os"
	"strings"

	"github.com/dshills/commitcraft/internal/apperr"
)

// envLookup is swapped in tests.
var envLookup = os.Getenv

// keyEnvName derives the provider-specific variable: "my-proxy" -> "MY_PROXY_API_KEY".
func keyEnvName(name string) string {
	return strings.ToUpper(strings.ReplaceAll(name, "-", "_")) + "_API_KEY"
}

func familyKeyEnv(style Style) string {
	if style == StyleClaude {
		return "ANTHROPIC_API_KEY"
	}
	return "OPENAI_API_KEY"
}

// resolveAPIKey looks for a key in config, then <NAME>_API_KEY, then the
// family default variable.
func resolveAPIKey(name string, style Style, configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	specific := keyEnvName(name)
	if v := envLookup(specific); v != "" {
		return v, nil
	}
	family := familyKeyEnv(style)
	if v := envLookup(family); v != "" {
		return v, nil
	}

	hint := fmt.Sprintf("Set api_key under llm.providers.%s in the config file, or export %s", name, specific)
	if specific != family {
		hint += " or " + family
	}
	return "", apperr.Config(hint, "%s API key not found", name)
}
