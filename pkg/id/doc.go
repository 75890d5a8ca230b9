// Package id provides 128-bit, lexicographically sortable run identifiers.
//
// # Format
//
// A RunID is 16 bytes big-endian: [8 bytes ms_timestamp][8 bytes sequence].
// Sorting RunIDs bytewise (or their hex strings) orders them by creation
// time, which keeps file-sink run files chronologically named without
// parsing timestamps out of filenames.
package id
