package layout_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/suit-tools/manifest-generator/suit-golang/pkg/hexfile"
	"github.com/suit-tools/manifest-generator/suit-golang/pkg/layout"
)

func insert(t *testing.T, m *layout.MemoryMap, addresses []uint32, source string) {
	t.Helper()
	for _, a := range addresses {
		if err := m.Insert(a, byte(a), source); err != nil {
			t.Fatalf("insert %#x: %v", a, err)
		}
	}
}

func TestSegments(t *testing.T) {
	t.Run("large gap splits into two segments", func(t *testing.T) {
		m := layout.NewMemoryMap(false)
		insert(t, m, []uint32{0, 1, 2, 100, 101}, "a.hex")

		segments := m.Segments(0xff)
		if len(segments) != 2 {
			t.Fatalf("got %d segments, want 2", len(segments))
		}

		if segments[0].StartAddress != 0 {
			t.Errorf("segment 0 starts at %#x", segments[0].StartAddress)
		}
		if !bytes.Equal(segments[0].Bytes, []byte{0, 1, 2}) {
			t.Errorf("segment 0 bytes: % x", segments[0].Bytes)
		}

		if segments[1].StartAddress != 100 {
			t.Errorf("segment 1 starts at %#x", segments[1].StartAddress)
		}
		if !bytes.Equal(segments[1].Bytes, []byte{100, 101}) {
			t.Errorf("segment 1 bytes: % x", segments[1].Bytes)
		}
	})

	t.Run("small gap is filled", func(t *testing.T) {
		m := layout.NewMemoryMap(false)
		insert(t, m, []uint32{0, 1, 3, 4}, "a.hex")

		segments := m.Segments(0xff)
		if len(segments) != 1 {
			t.Fatalf("got %d segments, want 1", len(segments))
		}
		if !bytes.Equal(segments[0].Bytes, []byte{0, 1, 0xff, 3, 4}) {
			t.Errorf("bytes: % x", segments[0].Bytes)
		}
	})

	t.Run("gap of three is filled, gap of four splits", func(t *testing.T) {
		m := layout.NewMemoryMap(false)
		insert(t, m, []uint32{0, 3}, "a.hex")
		if got := m.Segments(0xee); len(got) != 1 || !bytes.Equal(got[0].Bytes, []byte{0, 0xee, 0xee, 3}) {
			t.Errorf("gap 3: %+v", got)
		}

		m = layout.NewMemoryMap(false)
		insert(t, m, []uint32{0, 4}, "a.hex")
		if got := m.Segments(0xee); len(got) != 2 {
			t.Errorf("gap 4: got %d segments, want 2", len(got))
		}
	})

	t.Run("empty map yields no segments", func(t *testing.T) {
		m := layout.NewMemoryMap(false)
		if got := m.Segments(0xff); got != nil {
			t.Errorf("got %+v, want nil", got)
		}
	})

	t.Run("single byte yields one segment", func(t *testing.T) {
		m := layout.NewMemoryMap(false)
		insert(t, m, []uint32{42}, "a.hex")

		segments := m.Segments(0xff)
		if len(segments) != 1 {
			t.Fatalf("got %d segments", len(segments))
		}
		if segments[0].StartAddress != 42 || !bytes.Equal(segments[0].Bytes, []byte{42}) {
			t.Errorf("got %+v", segments[0])
		}
	})

	t.Run("unsorted insertion order does not matter", func(t *testing.T) {
		m := layout.NewMemoryMap(false)
		insert(t, m, []uint32{101, 2, 100, 0, 1}, "a.hex")

		segments := m.Segments(0xff)
		if len(segments) != 2 {
			t.Fatalf("got %d segments, want 2", len(segments))
		}
		if segments[0].StartAddress != 0 || segments[1].StartAddress != 100 {
			t.Errorf("starts: %#x, %#x", segments[0].StartAddress, segments[1].StartAddress)
		}
	})
}

func TestSegmentSpanProperty(t *testing.T) {
	// Each normalised segment covers exactly max-min+1 addresses.
	inputs := [][]uint32{
		{0, 1, 2, 3},
		{0, 2, 4, 6, 8},
		{10, 13, 20, 21, 500, 501, 503},
		{7},
	}

	for _, addresses := range inputs {
		m := layout.NewMemoryMap(false)
		insert(t, m, addresses, "a.hex")

		segments := m.Segments(0x00)
		for i, seg := range segments {
			// The highest written address that belongs to this segment.
			last := seg.StartAddress
			for _, a := range addresses {
				if a > last && (i+1 == len(segments) || a < segments[i+1].StartAddress) {
					last = a
				}
			}
			span := int(last-seg.StartAddress) + 1
			if len(seg.Bytes) != span {
				t.Errorf("addresses %v: segment at %#x has %d bytes, span %d",
					addresses, seg.StartAddress, len(seg.Bytes), span)
			}
		}
	}
}

func TestOverwrites(t *testing.T) {
	t.Run("rejected by default", func(t *testing.T) {
		m := layout.NewMemoryMap(false)
		if err := m.Insert(0x100, 0xaa, "first.hex"); err != nil {
			t.Fatal(err)
		}

		err := m.Insert(0x100, 0xbb, "second.hex")
		if err == nil {
			t.Fatal("expected overwrite error")
		}
		for _, want := range []string{"first.hex", "second.hex", "0xaa", "0xbb"} {
			if !strings.Contains(err.Error(), want) {
				t.Errorf("error %q does not mention %q", err, want)
			}
		}
	})

	t.Run("allowed when configured, last write wins", func(t *testing.T) {
		m := layout.NewMemoryMap(true)
		if err := m.Insert(0x100, 0xaa, "first.hex"); err != nil {
			t.Fatal(err)
		}
		if err := m.Insert(0x100, 0xbb, "second.hex"); err != nil {
			t.Fatalf("overwrite rejected: %v", err)
		}

		segments := m.Segments(0xff)
		if len(segments) != 1 || segments[0].Bytes[0] != 0xbb {
			t.Errorf("got %+v", segments)
		}
	})
}

func TestInsertAll(t *testing.T) {
	m := layout.NewMemoryMap(false)
	content := []hexfile.AddressedByte{
		{Address: 0, Value: 1},
		{Address: 1, Value: 2},
	}
	if err := m.InsertAll(content, "a.hex"); err != nil {
		t.Fatal(err)
	}

	segments := m.Segments(0xff)
	if len(segments) != 1 || !bytes.Equal(segments[0].Bytes, []byte{1, 2}) {
		t.Errorf("got %+v", segments)
	}
}
