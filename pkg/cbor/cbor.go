// Package cbor implements a deterministic CBOR writer (RFC 8949) for
// SUIT envelope construction.
//
// The writer is length-minimal but deliberately not canonical: map
// entries are emitted in insertion order, duplicate keys are permitted,
// and the encoded bytes are a function of assembly order alone. This is
// the contract SUIT manifest consumers in the bootloader rely on, so a
// general-purpose CBOR library cannot be substituted here.
package cbor

import "encoding/binary"

// Kind identifies the variant held by a Value.
type Kind uint8

// Value variants.
const (
	KindUint Kind = iota
	KindNint
	KindByteString
	KindTextString
	KindArray
	KindMap
	KindTag
	KindTrue
	KindFalse
	KindNull
)

// Value is a single node in a CBOR document tree.
type Value struct {
	kind  Kind
	num   uint64
	bytes []byte
	text  string
	items []Value
	pairs []Pair
	child *Value
}

// Pair is one map entry. Map order is significant and preserved.
type Pair struct {
	Key   Value
	Value Value
}

// Uint returns an unsigned integer value (major type 0).
func Uint(n uint64) Value {
	return Value{kind: KindUint, num: n}
}

// Nint returns a negative integer value. Nint(n) encodes the integer -n
// for n > 0. Nint(0) encodes as the positive zero, matching the
// historical writer behavior; it is not produced by any SUIT codepoint.
func Nint(n uint64) Value {
	return Value{kind: KindNint, num: n}
}

// ByteString returns a byte string value (major type 2).
func ByteString(b []byte) Value {
	return Value{kind: KindByteString, bytes: b}
}

// TextString returns a UTF-8 text string value (major type 3).
func TextString(s string) Value {
	return Value{kind: KindTextString, text: s}
}

// Array returns an array of the given elements, in order.
func Array(items ...Value) Value {
	return Value{kind: KindArray, items: items}
}

// Map returns a map of the given entries, in order. Keys are not
// deduplicated and not sorted.
func Map(pairs ...Pair) Value {
	return Value{kind: KindMap, pairs: pairs}
}

// Tag wraps content in the given tag number (major type 6).
func Tag(number uint64, content Value) Value {
	return Value{kind: KindTag, num: number, child: &content}
}

// Bool returns the CBOR boolean for b.
func Bool(b bool) Value {
	if b {
		return True()
	}
	return False()
}

// True returns the CBOR true simple value.
func True() Value { return Value{kind: KindTrue} }

// False returns the CBOR false simple value.
func False() Value { return Value{kind: KindFalse} }

// Null returns the CBOR null simple value.
func Null() Value { return Value{kind: KindNull} }

// Kind reports the variant of v.
func (v Value) Kind() Kind { return v.kind }

// Encode serializes v to its byte representation.
func (v Value) Encode() []byte {
	return v.appendTo(nil)
}

func (v Value) appendTo(dst []byte) []byte {
	switch v.kind {
	case KindUint:
		return appendHeader(dst, 0, v.num)
	case KindNint:
		if v.num == 0 {
			return appendHeader(dst, 0, 0)
		}
		return appendHeader(dst, 1, v.num-1)
	case KindByteString:
		dst = appendHeader(dst, 2, uint64(len(v.bytes)))
		return append(dst, v.bytes...)
	case KindTextString:
		dst = appendHeader(dst, 3, uint64(len(v.text)))
		return append(dst, v.text...)
	case KindArray:
		dst = appendHeader(dst, 4, uint64(len(v.items)))
		for _, item := range v.items {
			dst = item.appendTo(dst)
		}
		return dst
	case KindMap:
		dst = appendHeader(dst, 5, uint64(len(v.pairs)))
		for _, pair := range v.pairs {
			dst = pair.Key.appendTo(dst)
			dst = pair.Value.appendTo(dst)
		}
		return dst
	case KindTag:
		dst = appendHeader(dst, 6, v.num)
		return v.child.appendTo(dst)
	case KindTrue:
		return appendHeader(dst, 7, 21)
	case KindFalse:
		return appendHeader(dst, 7, 20)
	case KindNull:
		return appendHeader(dst, 7, 22)
	}
	return dst
}

// appendHeader emits a length-minimal CBOR item header: arguments below
// 24 pack into the initial byte, larger arguments use the smallest of
// the 1, 2, 4, or 8 byte big-endian forms.
func appendHeader(dst []byte, majorType byte, argument uint64) []byte {
	switch {
	case argument < 24:
		return append(dst, majorType<<5|byte(argument))
	case argument <= 0xff:
		return append(dst, majorType<<5|24, byte(argument))
	case argument <= 0xffff:
		dst = append(dst, majorType<<5|25)
		return binary.BigEndian.AppendUint16(dst, uint16(argument))
	case argument <= 0xffffffff:
		dst = append(dst, majorType<<5|26)
		return binary.BigEndian.AppendUint32(dst, uint32(argument))
	default:
		dst = append(dst, majorType<<5|27)
		return binary.BigEndian.AppendUint64(dst, argument)
	}
}
