// Package domain contains the core entities and value types of deskfind:
// candidate file hits from the two corpora, the structured query extracted
// from free-form Korean input, condition sets for the overlap fallback, and
// the final answer returned to the caller.
//
// Everything here is a read-only snapshot; values are immutable after
// construction and never reach back into live storage.
package domain
