// Package database provides the PostgreSQL connection pool used by the
// postgres output format.
//
// Exported withdrawals land in a single table, okx_withdrawals, keyed by the
// exchange withdrawal id so repeated exports of overlapping windows are
// idempotent.
package database
