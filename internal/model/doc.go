// Package model defines the data types shared by the exporter.
//
// Conventions:
//   - Records keep the server's field order and raw value types
//   - Timestamps: int64 milliseconds since Unix epoch (UTC)
//   - Numbers are held as json.Number so amounts never lose precision
package model
