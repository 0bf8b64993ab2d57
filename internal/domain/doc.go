// Package domain holds the check model: configuration, API requests and
// responses, per-step results, reports and the errors shared by every layer.
//
// Nothing here performs I/O. Gateways and stores in infra translate to and
// from these types.
package domain
