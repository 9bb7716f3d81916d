// Package e2ee describes the end-to-end encryption application runtime that
// the decrypt tool drives: the data it exchanges (backup files, items,
// challenges) and the capabilities it expects from its host (storage,
// interaction, crypto).
//
// The tool treats the runtime as a black box. Hosts construct an Application
// through a Factory, passing Options that carry the adapters; tests can swap
// in a double for any capability.
package e2ee
