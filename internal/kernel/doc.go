// Package kernel is the boundary to the host notebook kernel: the only
// entity able to restart the running interpreter. Restart requests are
// one-way notifications; post-restart guarantees belong to the check
// service.
package kernel
