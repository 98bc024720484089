// Package pins persists the package manager's version-constraint file
// (conda-meta/pinned) as a line set rewritten idempotently.
package pins
