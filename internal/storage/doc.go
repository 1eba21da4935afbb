// Package storage provides durable backends for the passvault document.
//
// The vault is always written as one complete document; backends never
// apply partial updates. Three backends are available:
//   - File: JSON file replaced via temp file + rename
//   - Bolt: BBolt database with ACID transactions, file locking and
//     compaction; the document lives under the vault bucket
//   - Memory: in-process, for tests and embedding
package storage
