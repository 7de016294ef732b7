// Package api exposes flashcard generation over HTTP: it decodes and
// validates requests, calls the generation service and turns reported
// failures into status codes with safe, user-facing messages.
package api
