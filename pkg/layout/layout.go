// Package layout merges addressed firmware bytes into contiguous,
// gap-filled memory segments.
package layout

import (
	"fmt"
	"sort"

	"github.com/suit-tools/manifest-generator/suit-golang/pkg/hexfile"
)

// splitPenalty is the gap size, in bytes, at which filling the hole is
// considered worse than starting a new segment. Small gaps become fill
// bytes (which compress well); anything this size or larger splits the
// image into separate payloads.
const splitPenalty = 4

// Segment is a contiguous block of memory with every internal gap
// filled.
type Segment struct {
	StartAddress uint32
	Bytes        []byte
}

type cell struct {
	value  byte
	source string
}

// MemoryMap accumulates addressed bytes from one or more input files
// and resolves them into segments.
type MemoryMap struct {
	cells           map[uint32]cell
	allowOverwrites bool
}

// NewMemoryMap returns an empty memory map. When allowOverwrites is
// false, writing the same address twice is an error.
func NewMemoryMap(allowOverwrites bool) *MemoryMap {
	return &MemoryMap{
		cells:           make(map[uint32]cell),
		allowOverwrites: allowOverwrites,
	}
}

// Insert records one byte of the memory image. The source identifies
// the input file for overwrite diagnostics.
func (m *MemoryMap) Insert(address uint32, value byte, source string) error {
	if existing, ok := m.cells[address]; ok && !m.allowOverwrites {
		return fmt.Errorf("the value at address %#04x is set multiple times; first by %q (%#02x), and then by %q (%#02x)",
			address, existing.source, existing.value, source, value)
	}

	m.cells[address] = cell{value: value, source: source}
	return nil
}

// InsertAll records every addressed byte from a parsed hex file.
func (m *MemoryMap) InsertAll(content []hexfile.AddressedByte, source string) error {
	for _, ab := range content {
		if err := m.Insert(ab.Address, ab.Value, source); err != nil {
			return err
		}
	}
	return nil
}

// Segments resolves the accumulated memory image into gap-filled
// segments, splitting wherever the distance between written addresses
// reaches the split threshold. An empty map yields no segments.
func (m *MemoryMap) Segments(fill byte) []Segment {
	linear := make([]hexfile.AddressedByte, 0, len(m.cells))
	for address, c := range m.cells {
		linear = append(linear, hexfile.AddressedByte{Address: address, Value: c.value})
	}
	sort.Slice(linear, func(i, j int) bool { return linear[i].Address < linear[j].Address })

	if len(linear) == 0 {
		return nil
	}

	chunks := []int{0}
	for _, g := range findGaps(linear) {
		if g.size >= splitPenalty {
			chunks = append(chunks, g.index)
		}
	}
	chunks = append(chunks, len(linear))

	segments := make([]Segment, 0, len(chunks)-1)
	for i := 0; i+1 < len(chunks); i++ {
		segments = append(segments, normalize(linear[chunks[i]:chunks[i+1]], fill))
	}

	return segments
}

type gap struct {
	index int
	size  uint32
}

// findGaps reports every position in the sorted address sequence where
// the address jumps by more than one.
func findGaps(linear []hexfile.AddressedByte) []gap {
	var gaps []gap

	lastAddress := linear[0].Address
	for index, ab := range linear {
		if size := ab.Address - lastAddress; size > 1 {
			gaps = append(gaps, gap{index: index, size: size})
		}
		lastAddress = ab.Address
	}

	return gaps
}

// normalize emits the entries of one chunk as consecutive bytes,
// inserting fill bytes over any remaining address jumps.
func normalize(linear []hexfile.AddressedByte, fill byte) Segment {
	startAddress := linear[0].Address

	bytes := make([]byte, 0, len(linear))
	lastAddress := startAddress
	for _, ab := range linear {
		if distance := ab.Address - lastAddress; distance > 1 {
			for i := uint32(1); i < distance; i++ {
				bytes = append(bytes, fill)
			}
		}
		bytes = append(bytes, ab.Value)
		lastAddress = ab.Address
	}

	return Segment{StartAddress: startAddress, Bytes: bytes}
}
