// Package errors defines error types for the cordon filter.
//
// This package provides structured error types that wrap different failure
// scenarios when launching and relaying to the upstream MCP server. All
// error types support error unwrapping and can be checked using errors.Is,
// errors.As, and errors.AsType.
package errors
