// Package config defines bootstrap settings used by the CLI and provides
// helpers to load, validate and save them in YAML format.
//
// The Config type holds the installation prefix, the host interpreter path
// and the environment overrides injected through the shim.
package config
