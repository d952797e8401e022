// Package transcription implements the pipeline stage that turns hearing
// recordings into plain-text transcripts via ffmpeg and WhisperX.
package transcription
