// Package memory provides in-memory implementations of the driven storage
// ports. They back unit tests and ad-hoc wiring where a database is overkill,
// and enforce the same access predicates as the SQLite adapter.
package memory
