// Package datastore owns the Postgres connection pool and exposes it to the
// health subsystem as a pinger with a logical name and a numeric ready
// state.
package datastore
