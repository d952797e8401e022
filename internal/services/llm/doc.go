// Package llm provides the OpenRouter chat-completion client used by the
// extraction and document generation stages, including retry handling and
// tolerant decoding of model JSON output.
package llm
