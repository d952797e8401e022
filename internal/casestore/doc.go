// Package casestore persists lavra's case registry in SQLite: per-case
// inputs, coarse lifecycle status, and the paths of produced artifacts. Live
// per-stage task state is deliberately not stored here; it belongs to the
// in-memory pipeline tracker for the duration of one run.
package casestore
