// Package errs defines the typed errors shared across the assistant.
//
// Callers distinguish them with errors.As; each carries only a message.
package errs
