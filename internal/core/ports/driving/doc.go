// Package driving provides interfaces for primary/inbound adapters
// (HTTP API, CLI) to invoke core services.
package driving
