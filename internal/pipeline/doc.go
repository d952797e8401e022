// Package pipeline implements the per-case processing pipeline: the
// forward-only task state machine, the sequential stage runner with its
// abort-on-failure policy, the progress aggregation shown to observers, and
// the case-keyed tracker that serves consistent snapshots while a run is in
// flight.
package pipeline
