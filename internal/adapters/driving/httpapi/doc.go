// Package httpapi exposes the file search and file access services over
// HTTP: one chat endpoint for natural-language search, and view/download
// endpoints that stream authorized file content.
package httpapi
