// Package services implements the engine behind the driving port: document
// ingestion (chunk → embed → index), context retrieval with graceful
// degradation, and corpus management including rebuild-on-delete.
package services
