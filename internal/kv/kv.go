// Package kv is the durable key-value facility behind the live state and presets.
// Values are opaque strings; drivers perform no interpretation.
package kv

import "errors"

var ErrNotConfigured = errors.New("storage is not configured")

// Store is a synchronous last-write-wins key-value store.
type Store interface {
	// Get returns the value for key and whether it exists.
	Get(key string) (string, bool, error)
	Set(key, value string) error
}
