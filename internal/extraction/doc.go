// Package extraction implements the pipeline stage that pulls structured
// case data out of the petition document and the hearing transcript.
package extraction
