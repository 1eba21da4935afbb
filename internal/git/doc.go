// Package git reports whether the vault file sits inside a git working tree.
//
// The vault is encrypted, but committing it keeps every earlier version
// (and every earlier passphrase's ciphertext) in history, so status warns
// when the file is tracked or not ignored.
package git
