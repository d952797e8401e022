// Package whisperx wraps the WhisperX CLI (run via uvx) and the ffmpeg audio
// extraction step that prepares hearing recordings for transcription.
package whisperx
