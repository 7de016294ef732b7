// Package domain contains the core value objects of flashcard generation:
// the Flashcard itself, the Difficulty enum, and the GenerationParams a
// caller supplies. It is independent of any model provider or delivery
// mechanism.
package domain
