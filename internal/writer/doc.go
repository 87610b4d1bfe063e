// Package writer streams withdrawal batches to an output sink.
//
// Writers:
//   - CSV file (header fixed by the first non-empty batch)
//   - JSON lines file (one object per line)
//   - PostgreSQL table okx_withdrawals
//
// Every Write is flushed before it returns, so a run that fails midway
// leaves complete rows for the batches already written. Close is safe to
// call more than once.
package writer
