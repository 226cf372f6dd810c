// Package services implements the core application logic of deskfind:
// rule-based query parsing with an LLM fallback, the nickname cache, the
// retrieval orchestrator with its soft-AND degradation ladder, and file
// access authorization.
package services
