// Package payload turns Intel-HEX firmware images into SUIT payloads.
//
// Input files are merged into one memory image, split into gap-filled
// segments, and each segment becomes one payload, optionally compressed
// with the rANS entropy coder.
package payload

import (
	"fmt"

	"github.com/suit-tools/manifest-generator/suit-golang/pkg/hexfile"
	"github.com/suit-tools/manifest-generator/suit-golang/pkg/layout"
	"github.com/suit-tools/manifest-generator/suit-golang/pkg/rans"
)

// Payload is one integrated SUIT payload.
type Payload struct {
	// URI of the payload. The custom schemes "p:" and "cp:" denote raw
	// and compressed payloads, respectively, followed by the segment
	// index.
	URI string

	// StartAddress is where the payload is placed in device memory.
	StartAddress uint32

	// Size of the payload in bytes, after any compression.
	Size int

	// Bytes holds the payload content as embedded in the envelope.
	Bytes []byte
}

// Options configure payload construction.
type Options struct {
	// Fill is the value an unwritten byte has in memory.
	Fill byte

	// AllowOverwrites permits later files to overwrite bytes placed by
	// earlier ones.
	AllowOverwrites bool

	// Compress runs each segment through the rANS coder.
	Compress bool
}

// FromHexFiles builds the payload list for a firmware update described
// by the given hex files.
func FromHexFiles(files []string, opts Options) ([]Payload, error) {
	memory := layout.NewMemoryMap(opts.AllowOverwrites)

	for _, file := range files {
		content, err := hexfile.Read(file)
		if err != nil {
			return nil, err
		}
		if err := memory.InsertAll(content, file); err != nil {
			return nil, err
		}
	}

	return FromSegments(memory.Segments(opts.Fill), opts.Compress)
}

// FromSegments converts gap-filled segments into payloads.
func FromSegments(segments []layout.Segment, compress bool) ([]Payload, error) {
	model := rans.NewUniformByteModel()

	payloads := make([]Payload, 0, len(segments))
	for index, segment := range segments {
		var uri string
		var content []byte

		if compress {
			encoded, err := rans.Encode(model, segment.Bytes)
			if err != nil {
				return nil, fmt.Errorf("failed to compress segment %d: %w", index, err)
			}
			uri = fmt.Sprintf("cp:%d", index)
			content = encoded
		} else {
			uri = fmt.Sprintf("p:%d", index)
			content = segment.Bytes
		}

		payloads = append(payloads, Payload{
			URI:          uri,
			StartAddress: segment.StartAddress,
			Size:         len(content),
			Bytes:        content,
		})
	}

	return payloads, nil
}
