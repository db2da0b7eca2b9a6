// Package postgres provides PostgreSQL implementations of the store
// interfaces. All implementations work against the store.DBTX abstraction so
// they run identically on a plain connection or inside a transaction.
package postgres
