// Package cmd implements the command-line interface for saltfish. It
// provides a hierarchical command structure with operations for
// running the server.
//
// The package is organized into subpackages:
//
//   - serve: starts and configures the saltfish server
//   - util: shared utilities for command-line processing (internal use)
//
// See saltfish -help for a list of all commands.
package cmd
