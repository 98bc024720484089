// Package common holds helpers shared by the bootstrap services: typed
// subprocess execution with explicit exit-status handling, and file
// checksums used to verify preserved executables.
package common
