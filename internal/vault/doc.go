// Package vault provides the passvault credential store.
//
// A Vault maps service names to credential records. Only the secret of
// each record is encrypted; service, username and timestamps are stored
// in the clear so List works without decrypting anything.
//
// Lifecycle:
//   - Create: new salt, derive key, write canary, persist empty vault
//   - Open: parse document, derive key from stored salt, verify canary
//   - OpenOrCreate: Open, or Create when no document exists yet
//
// Every mutation rewrites the whole document through the storage
// backend before returning. If the write fails the in-memory change is
// undone, so callers never observe a record that is not on disk.
//
// All failures are *Error values whose Kind is one of a closed set;
// use errors.Is with the Err* sentinels or switch on KindOf.
package vault
