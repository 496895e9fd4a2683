// Package recfile reads and writes files of consecutive fixed-layout
// records, optionally wrapped in gzip, zstd, lz4 or s2 compression chosen
// by file extension.
package recfile
