// Package installer downloads a constructor-like installer artifact and
// executes it in batch mode against a target prefix. The artifact is
// deleted after execution; a non-zero installer exit aborts the bootstrap
// before any configuration is touched.
package installer
