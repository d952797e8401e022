// Package workflow coordinates case processing: it polls the case store for
// queued cases and drives each one through the transcription, extraction and
// document generation stages via the pipeline runner.
package workflow
