// Package keyring stores vault master passwords in the OS keyring
// (macOS Keychain, Secret Service, Windows Credential Manager), keyed
// by vault ID so several vaults can coexist.
package keyring
