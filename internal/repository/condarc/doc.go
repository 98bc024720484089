// Package condarc persists the package manager's run-control file (.condarc)
// as a structured YAML document with key-overwrite updates.
package condarc
