// Package backend provides the programs a bridge attaches to each client
// connection.
//
// Echo acknowledges input and is used for tests and demos. PTY drives a real
// CLI, typically the Copilot CLI, through a pseudo-terminal.
package backend
