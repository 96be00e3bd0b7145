package cbor_test

import (
	"bytes"
	"testing"

	fxcbor "github.com/fxamacker/cbor/v2"

	"github.com/suit-tools/manifest-generator/suit-golang/pkg/cbor"
)

func TestHeaderEncoding(t *testing.T) {
	cases := []struct {
		name  string
		value cbor.Value
		want  []byte
	}{
		{"zero", cbor.Uint(0), []byte{0x00}},
		{"inline max", cbor.Uint(23), []byte{0x17}},
		{"one byte min", cbor.Uint(24), []byte{0x18, 0x18}},
		{"one byte max", cbor.Uint(255), []byte{0x18, 0xff}},
		{"two bytes min", cbor.Uint(256), []byte{0x19, 0x01, 0x00}},
		{"two bytes max", cbor.Uint(65535), []byte{0x19, 0xff, 0xff}},
		{"four bytes min", cbor.Uint(65536), []byte{0x1a, 0x00, 0x01, 0x00, 0x00}},
		{"four bytes max", cbor.Uint(1<<32 - 1), []byte{0x1a, 0xff, 0xff, 0xff, 0xff}},
		{"eight bytes", cbor.Uint(1 << 32), []byte{0x1b, 0, 0, 0, 1, 0, 0, 0, 0}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.value.Encode()
			if !bytes.Equal(got, tc.want) {
				t.Errorf("got % x, want % x", got, tc.want)
			}
		})
	}
}

func TestSimpleValues(t *testing.T) {
	if got := cbor.True().Encode(); !bytes.Equal(got, []byte{0xf5}) {
		t.Errorf("true: got % x", got)
	}
	if got := cbor.False().Encode(); !bytes.Equal(got, []byte{0xf4}) {
		t.Errorf("false: got % x", got)
	}
	if got := cbor.Null().Encode(); !bytes.Equal(got, []byte{0xf6}) {
		t.Errorf("null: got % x", got)
	}
	if got := cbor.Bool(true).Encode(); !bytes.Equal(got, []byte{0xf5}) {
		t.Errorf("bool(true): got % x", got)
	}
}

func TestNegativeIntegers(t *testing.T) {
	t.Run("nint zero encodes as positive zero", func(t *testing.T) {
		if got := cbor.Nint(0).Encode(); !bytes.Equal(got, []byte{0x00}) {
			t.Errorf("got % x, want 00", got)
		}
		if got := cbor.Uint(0).Encode(); !bytes.Equal(got, []byte{0x00}) {
			t.Errorf("got % x, want 00", got)
		}
	})

	t.Run("cose algorithm codepoints", func(t *testing.T) {
		// -16 (SHA-256) is header(1, 15), -45 (SHAKE256) is header(1, 44)
		if got := cbor.Nint(16).Encode(); !bytes.Equal(got, []byte{0x2f}) {
			t.Errorf("Nint(16): got % x, want 2f", got)
		}
		if got := cbor.Nint(45).Encode(); !bytes.Equal(got, []byte{0x38, 0x2c}) {
			t.Errorf("Nint(45): got % x, want 38 2c", got)
		}

		var decoded int64
		if err := fxcbor.Unmarshal(cbor.Nint(16).Encode(), &decoded); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if decoded != -16 {
			t.Errorf("decoded %d, want -16", decoded)
		}
	})
}

func TestStrings(t *testing.T) {
	t.Run("byte string", func(t *testing.T) {
		got := cbor.ByteString([]byte{0xde, 0xad}).Encode()
		want := []byte{0x42, 0xde, 0xad}
		if !bytes.Equal(got, want) {
			t.Errorf("got % x, want % x", got, want)
		}
	})

	t.Run("text string", func(t *testing.T) {
		got := cbor.TextString("cp:0").Encode()
		want := append([]byte{0x64}, "cp:0"...)
		if !bytes.Equal(got, want) {
			t.Errorf("got % x, want % x", got, want)
		}
	})

	t.Run("empty strings", func(t *testing.T) {
		if got := cbor.ByteString(nil).Encode(); !bytes.Equal(got, []byte{0x40}) {
			t.Errorf("empty bstr: got % x", got)
		}
		if got := cbor.TextString("").Encode(); !bytes.Equal(got, []byte{0x60}) {
			t.Errorf("empty tstr: got % x", got)
		}
	})
}

func TestMapPreservesInsertionOrder(t *testing.T) {
	forward := cbor.Map(
		cbor.Pair{Key: cbor.Uint(1), Value: cbor.Uint(2)},
		cbor.Pair{Key: cbor.Uint(3), Value: cbor.Uint(4)},
	).Encode()
	if !bytes.Equal(forward, []byte{0xa2, 0x01, 0x02, 0x03, 0x04}) {
		t.Errorf("forward: got % x", forward)
	}

	reversed := cbor.Map(
		cbor.Pair{Key: cbor.Uint(3), Value: cbor.Uint(4)},
		cbor.Pair{Key: cbor.Uint(1), Value: cbor.Uint(2)},
	).Encode()
	if !bytes.Equal(reversed, []byte{0xa2, 0x03, 0x04, 0x01, 0x02}) {
		t.Errorf("reversed: got % x", reversed)
	}
}

func TestTag(t *testing.T) {
	got := cbor.Tag(107, cbor.Uint(0)).Encode()
	if !bytes.Equal(got, []byte{0xd8, 0x6b, 0x00}) {
		t.Errorf("got % x, want d8 6b 00", got)
	}
}

func TestNestedStructure(t *testing.T) {
	value := cbor.Array(
		cbor.Uint(1),
		cbor.Map(cbor.Pair{Key: cbor.TextString("a"), Value: cbor.ByteString([]byte{0x01})}),
		cbor.Null(),
	)

	var decoded []interface{}
	if err := fxcbor.Unmarshal(value.Encode(), &decoded); err != nil {
		t.Fatalf("independent decoder rejected output: %v", err)
	}
	if len(decoded) != 3 {
		t.Fatalf("decoded %d elements, want 3", len(decoded))
	}
	if decoded[0] != uint64(1) {
		t.Errorf("element 0: got %v", decoded[0])
	}
	if decoded[2] != nil {
		t.Errorf("element 2: got %v, want nil", decoded[2])
	}
}

func TestHeaderWidthRoundTrip(t *testing.T) {
	// Every width boundary must survive an independent decode.
	for _, n := range []uint64{0, 23, 24, 255, 256, 65535, 65536, 1<<32 - 1, 1 << 32, 1<<64 - 1} {
		var decoded uint64
		if err := fxcbor.Unmarshal(cbor.Uint(n).Encode(), &decoded); err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}
		if decoded != n {
			t.Errorf("n=%d: decoded %d", n, decoded)
		}
	}
}
