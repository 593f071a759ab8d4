// Package config loads and validates the tickerd YAML configuration.
//
// Loading is tiered: Load reads and parses the file (with ${VAR}
// environment expansion), LoadWithDefaults fills unset optional fields,
// and LoadAndValidate additionally rejects invalid values. main should
// always use LoadAndValidate; a config that fails validation must abort
// startup.
package config
