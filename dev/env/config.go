package devenv

import (
	"os"
	"wastenot-e2e/lib/configutil"
)

// ConfigEnvVar overrides the location of the suite configuration.
const ConfigEnvVar = "WASTENOT_CONFIG"

const DefaultConfigName = "wastenot.json5"

// ReadSuiteConfig loads the suite configuration into T, it prefers the file
// named by $WASTENOT_CONFIG and otherwise searches up from the cwd for
// wastenot.json5.
func ReadSuiteConfig[T any]() (T, error) {
	explicit := os.Getenv(ConfigEnvVar)
	if explicit != "" {
		path, err := ResolvePath(explicit)
		if err != nil {
			var out T
			return out, err
		}
		return configutil.ReadConfig[T](path)
	}
	return configutil.ReadRecursively[T](DefaultConfigName)
}
