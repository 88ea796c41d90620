// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Interfaces
//
//   - Embedder: Maps text to a fixed-dimension vector
//   - CorpusStore: Tenant, document and chunk persistence
//   - CorpusWriter: The write side of one CorpusStore transaction
//   - TextDecoder: Turns an uploaded payload into UTF-8 text
//   - ConfigStore: Application configuration
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or driving package
package driven
