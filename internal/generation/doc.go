// Package generation turns source text into flashcards through a generative
// text model. It owns the three provider-independent stages of the pipeline
// and the orchestrator that composes them:
//
//   - BuildRequest assembles the instruction segment, the user content and
//     the structured output schema for one generation call.
//   - Parser unwraps the model's response envelope and validates each
//     question/answer record, degrading to partial or empty results.
//   - Service runs build, invoke and parse in order and converts every
//     lower-level failure into a reported Failure plus an empty result.
//
// The remote call itself sits behind the Invoker interface, implemented by
// the Gemini adapter in internal/platform/gemini.
package generation
