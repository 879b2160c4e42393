// Package providers sends review prompts to LLM backends and returns
// their raw completions.
//
// Three backends are supported. OpenRouter is the default and reaches
// many hosted models through one OpenAI-style endpoint. Anthropic talks
// to the Messages API directly. Ollama serves local models and also
// covers LM Studio, which speaks the same wire protocol. [New] maps a
// provider name to its implementation, returned as a [Completer].
//
// API keys come from the environment when a provider is constructed.
// Rate limits and 5xx responses are retried with exponential back-off;
// authentication failures and malformed responses are not. Each
// provider owns an http.Client, so tests either install a URL-rewriting
// RoundTripper or point OLLAMA_HOST or QUORUM_OPENROUTER_BASE_URL at an
// httptest server rather than calling live APIs.
package providers
