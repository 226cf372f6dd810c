// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): the access-scoped file stores, the member
// directory, blob access, the LLM client, and configuration.
package driven
