// Package stream provides byte-accounted readers and writers for the
// fixed-layout record format.
//
// Reader and Writer wrap an io.Reader / io.Writer, count every byte that
// passes through them and expose little-endian reads and writes for each
// scalar width. Both support bounded windows:
//
//	win := w.Window(10)  // exactly 10 bytes
//	win.Write([]byte("Ala"))
//	win.Close()          // pads the remaining 7 bytes with zeros
//
//	win := r.Window(10)
//	win.ReadFull(buf[:3])
//	win.Close()          // skips the remaining 7 bytes on the parent
//
// A window that is abandoned on an error path is detached with Release,
// which neither pads nor skips. Windows nest; every byte moved through a
// window is also accounted on its parents.
//
// Readers keep at most one byte of lookahead (for Exhausted); nothing else
// is buffered, so the parent position always reflects what was consumed.
//
// Readers, Writers and their windows are not safe for concurrent use.
package stream
