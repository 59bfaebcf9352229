// Package driven defines the outbound ports of the engine: the external
// capabilities it consumes (embedding, language model) and the
// infrastructure it owns behind interfaces (vector index, document store,
// snapshot and config persistence).
package driven
