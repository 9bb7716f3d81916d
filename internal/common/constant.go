// Package common contains shared constants, sentinel errors and small helpers
// used across the decrypt tool.
package common

// KeychainStorageKey is the reserved raw storage key holding the keychain blob.
const KeychainStorageKey = "keychain"

// MaxFileNameLength bounds every file name produced for an export archive.
const MaxFileNameLength = 100
