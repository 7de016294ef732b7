// Package gemini provides the generation.Invoker implementation that talks to
// Google's Gemini API.
//
// This package is an infrastructure adapter: it turns a generation.Request into
// a call against the remote model and hands back the raw response envelope,
// without interpreting the cards inside it.
//
// Key components:
//
// 1. Invoker:
//   - Implements the generation.Invoker interface
//   - Short-circuits to an empty envelope when no API key is configured
//   - Retries rate limiting and transient server faults with exponential backoff
//
// 2. Transports:
//   - RESTTransport posts the JSON wire request directly with net/http
//   - SDKTransport sends the same request through google.golang.org/genai
//
// 3. Error Handling:
//   - Transports translate failures into generation.ServiceError and
//     generation.TransportError values
//   - The retry policy classifies those errors as retryable or terminal
package gemini
