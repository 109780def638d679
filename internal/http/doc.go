// Package http exposes the management surface for dynamic APIs and the
// request-time dispatch for the CRUD routes those APIs serve. Management
// endpoints live under a configurable base path; dynamic routes are mounted
// once as wildcard patterns and resolved per request through the registry.
package http
