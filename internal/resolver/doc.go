// Package resolver models the interpreter's module search path as an
// explicit, passed-in value instead of mutable process-global state.
package resolver
