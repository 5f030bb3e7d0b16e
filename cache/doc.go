// Package cache provides the key/value cache used by the chat backend.
//
// A KeyValueStore is the raw capability (MemoryStore for single-process
// deployments, RedisStore for shared ones). Application code talks to the
// Facade, which never lets a store failure escape from Set, Get, Delete or
// Has: failures are logged, counted and replaced by a safe fallback. Clear
// is the exception and returns the store error to its caller.
package cache
