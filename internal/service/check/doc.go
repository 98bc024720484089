// Package check verifies, after the kernel restart, that the bootstrapped
// environment is actually the one being resolved: the package-manager
// executable is reachable, the module search path carries the environment's
// site-packages and the dynamic linker searches the environment's lib
// directory first.
package check
