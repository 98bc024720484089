// Package rebind rewires the host's resolution surfaces to a freshly
// installed environment: pin set, run-control file, interpreter start-up
// script, the live module search path and the interpreter executable
// itself, which is replaced by a shim while the original is preserved.
// The sequence ends by requesting a host-controlled kernel restart.
package rebind
