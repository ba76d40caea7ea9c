// Package llm analyses media filenames with an OpenAI-compatible model,
// falling back to filename heuristics when the analyser is disabled.
package llm
