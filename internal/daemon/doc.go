// Package daemon hosts the long-running lavra process: single-instance
// locking, workflow lifecycle, and the HTTP API the CLI talks to.
package daemon
