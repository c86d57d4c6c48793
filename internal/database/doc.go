// Package database provides PostgreSQL connection pool management for
// postgres destinations.
//
// Every postgres destination shares one pool. Rows land in a record table
// keyed by a random UUID:
//
//	id uuid, destination text, payload text, received_at timestamptz
package database
