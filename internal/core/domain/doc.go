// Package domain contains the core entities of the retrieval engine:
// documents, chunks, configuration, retrieval results and the sentinel
// errors shared by all layers. It has no dependencies on adapters or
// infrastructure.
package domain
