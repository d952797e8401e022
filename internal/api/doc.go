// Package api defines the transport types shared by the daemon's HTTP API
// and the CLI, plus the HTTP client the CLI uses to reach the daemon.
package api
