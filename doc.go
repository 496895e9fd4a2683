// Package vb6binary reads and writes fixed-layout binary records in the
// format of legacy VB6 data files.
//
// A record is a sequence of fields with no headers or delimiters. Strings
// and arrays occupy a declared, fixed number of bytes, so a file of records
// can be read without any framing.
//
// # Architecture Overview
//
//	vb6binary/           Root package with Marshal/Unmarshal for tagged structs
//	├── schema/          Record schemas: constructors, struct tags, YAML files
//	├── transcoder/      Encoder, Decoder and Codec driven by a schema
//	├── stream/          Byte-counting readers and writers with fixed windows
//	├── errors/          Structured error types for debugging
//	├── internal/recfile Compressed record files
//	└── cmd/vb6rec       Command line tool
//
// # Quick Start
//
// Declare capacities with struct tags:
//
//	type Customer struct {
//		ID    int32
//		Name  string   `vb6:"name,size=20"`
//		Codes []string `vb6:"codes,size=4,elem=2"`
//		Grid  [3][5]int16
//	}
//
//	data, err := vb6binary.Marshal(&c)
//	err = vb6binary.Unmarshal(data, &c)
//
// For schemas that live outside Go code, load a YAML schema with
// schema.LoadFile and use transcoder.New with transcoder.ConfigFromSchema.
package vb6binary
