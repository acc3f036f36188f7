// Package types defines the table, record, and snapshot types, the store
// interfaces, configuration, and the standard errors for the tabler record
// manager.
//
// A table is a flat text file with one comma-separated record per line.
// Records are addressed by their 0-based line position, which shifts when
// rows above them are removed.
package types
