// Package llm is a small OpenAI-compatible chat completion client used by the
// llm translation provider.
//
// Requests are sent in JSON mode and decoded with DecodeLLMJSON, which
// tolerates code fences and leading prose. Transient failures (HTTP 408, 429,
// 5xx, network timeouts, empty completions) are retried with exponential
// backoff; context cancellation stops retries immediately.
package llm
