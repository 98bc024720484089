package resolver

import (
	"fmt"
	"os"
	"strings"
)

// Config is an explicit module search path: the ordered list of directories
// consulted to resolve importable code. It replaces process-global search
// path mutation — callers construct one, hand it to the rebinder and receive
// the updated value back.
type Config struct {
	// paths holds the search directories in resolution order.
	paths []string
}

// New returns a Config containing the provided directories in order.
func New(paths ...string) *Config {
	return &Config{
		paths: append([]string(nil), paths...),
	}
}

// FromEnviron parses a PYTHONPATH-style list into a Config.
// Empty entries are dropped.
func FromEnviron(value string) *Config {
	parts := strings.Split(value, string(os.PathListSeparator))
	paths := make([]string, 0, len(parts))

	for _, part := range parts {
		if part == "" {
			continue
		}

		paths = append(paths, part)
	}

	return &Config{paths: paths}
}

// Paths returns a copy of the search directories in resolution order.
func (c *Config) Paths() []string {
	return append([]string(nil), c.paths...)
}

// Len returns the number of search directories.
func (c *Config) Len() int {
	return len(c.paths)
}

// Contains reports whether the directory is present anywhere in the path.
func (c *Config) Contains(dir string) bool {
	for _, path := range c.paths {
		if path == dir {
			return true
		}
	}

	return false
}

// EnsureFront inserts the directory at the front of the search path unless
// it is already present anywhere in it. It reports whether an insertion
// happened.
func (c *Config) EnsureFront(dir string) bool {
	if c.Contains(dir) {
		return false
	}

	c.paths = append([]string{dir}, c.paths...)

	return true
}

// Environ renders the search path back into a PYTHONPATH-style list.
func (c *Config) Environ() string {
	return strings.Join(c.paths, string(os.PathListSeparator))
}

// SitePackages computes the site-packages directory of the environment at
// prefix for the given interpreter version.
func SitePackages(prefix string, major, minor int) string {
	return fmt.Sprintf("%s/lib/python%d.%d/site-packages", prefix, major, minor)
}
