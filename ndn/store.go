package ndn

import enc "github.com/ndn-go/ndnkit/encoding"

type Store interface {
	// Get returns a Data wire matching the given name
	// prefix = return the lexicographically last Data wire with the given prefix
	Get(name enc.Name, prefix bool) ([]byte, error)

	// Put inserts a Data wire into the store
	Put(name enc.Name, wire []byte) error

	// Remove removes a Data wire from the store
	Remove(name enc.Name) error
	// RemovePrefix remove all Data wires under a prefix
	RemovePrefix(prefix enc.Name) error
	// RemoveFlatRange removes Data wires with names [prefix/first, prefix/last]
	RemoveFlatRange(prefix enc.Name, first enc.Component, last enc.Component) error

	// Begin starts a write transaction (for put only)
	// we support these primarily for performance rather than correctness
	// do not rely on atomicity of transactions as far as possible
	Begin() (Store, error)
	// Commit commits a write transaction
	Commit() error
	// Rollback discards a write transaction
	Rollback() error
}
