// Package llm builds OpenAI API clients and the retry policy shared by the
// narrative and speech collaborators.
//
// # Retry Behaviour
//
// Calls are retried on HTTP 408/429/5xx, network timeouts and empty content
// with exponential backoff (base 1s, max 10s, up to 3 attempts by default).
// Context cancellation aborts retries immediately. Callers turn the final
// error into a fallback; nothing here fails an analysis on its own.
package llm
