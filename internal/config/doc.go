// Package config loads runtime configuration from multiple sources (YAML files,
// environment variables, CLI flags) with precedence: CLI flags > YAML config >
// Environment variables > Defaults. It also carries the static methodology
// sets (non-dose exclusion list, funding label, transition countries, country
// aliases) so changing the published methodology is a configuration edit, not
// a code change.
package config
