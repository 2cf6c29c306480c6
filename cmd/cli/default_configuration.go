package cli

import _ "embed"

// defaultConfigurationDocument seeds the configuration loader before config.yaml, MANGO_ variables, and flags apply.
//
//go:embed default_config.yaml
var defaultConfigurationDocument string

// EmbeddedDefaultConfiguration returns a fresh copy of the built-in config.yaml and its format.
func EmbeddedDefaultConfiguration() ([]byte, string) {
	return []byte(defaultConfigurationDocument), configurationTypeConstant
}
