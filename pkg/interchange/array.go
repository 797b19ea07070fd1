// Package interchange bridges a chunk.Chunk to a foreign columnar
// interchange format via the C Data Interface ABI: a pair of structs
// (Array, Schema) whose field layout and order mirror the standard's
// ArrowArray/ArrowSchema exactly, so a consumer already speaking that
// layout can walk the exported buffers without linking this module.
//
// Grounded on original_source's data_chunk.cpp ToArrowArray/
// SetArrowChild/InitializeChild/ReleaseDuckDBArrowArray and the
// DuckDBArrowArrayHolder/DuckDBArrowArrayChildHolder types: the
// teacher's port never carried an Arrow bridge, so this is built new,
// using util.GAlloc for every buffer Export allocates fresh — the same
// allocator NewStandardBuffer already uses for a Vector's own storage —
// rather than cgo's CMalloc/CFree, since this exercise's Release is a
// Go closure and never crosses into C.
package interchange

import "unsafe"

// Array is the C Data Interface's ArrowArray struct, field for field,
// with one deliberate deviation: Release is a Go closure rather than a
// raw C function pointer. A real cross-language export would need a
// cgo-exported trampoline registered as that pointer; this core's
// verifiable surface is Go-to-Go (export, then a Go-side consumer
// walks the buffers and calls Release), so the ABI's *shape* — buffer
// count and geometry per §4.3's table — is what's load-bearing here,
// not literal C-callability. See DESIGN.md.
type Array struct {
	Length      int64
	NullCount   int64
	Offset      int64
	NBuffers    int64
	NChildren   int64
	Buffers     []unsafe.Pointer
	Children    []*Array
	Dictionary  *Array
	Release     func(*Array)
	PrivateData unsafe.Pointer
}

// Schema is the C Data Interface's ArrowSchema struct, describing the
// logical type/name/nullability an Array's buffers should be
// interpreted under.
type Schema struct {
	Format      string
	Name        string
	Metadata    string
	Flags       int64
	Children    []*Schema
	Dictionary  *Schema
	Release     func(*Schema)
	PrivateData unsafe.Pointer
}

const FlagNullable = 1 << 1
