// Package rans implements a range-variant asymmetric numeral system
// entropy coder, after:
//
//   - Asymmetric numeral systems, Jarek Duda, 2009
//   - A tutorial on the range variant of asymmetric numeral systems,
//     James Townsend, 2020
//
// Symbol probabilities are unsigned integer weights quantized to a
// fixed number of precision bits. The coder uses a 32-bit state with
// 8-bit renormalisation, so the state lower bound is 2^24.
package rans

import (
	"encoding/binary"
	"fmt"
)

const (
	stateBits  = 32
	renormBits = 8

	// lowerBound is the at-rest state minimum and the empty-message
	// sentinel.
	lowerBound = uint32(1) << (stateBits - renormBits)
)

// SymbolWeight assigns a quantized probability weight to one symbol.
type SymbolWeight[T comparable] struct {
	Symbol T
	Weight uint32
}

type symbolRange struct {
	weight     uint32
	cumulative uint32
}

type cumulativeEntry[T comparable] struct {
	cumulative uint32
	symbol     T
}

// Model holds the quantized probability distribution shared by the
// encoder and decoder. The symbol table and reverse cumulative table
// are built once and borrowed immutably while coding.
type Model[T comparable] struct {
	symbols    map[T]symbolRange
	cumulative []cumulativeEntry[T]
	precision  uint32
}

// NewModel builds a model with the given quantization precision in
// bits. The weights must sum to exactly 2 raised to the precision.
func NewModel[T comparable](precision uint32, weights []SymbolWeight[T]) (*Model[T], error) {
	if precision < 1 || precision > stateBits {
		return nil, fmt.Errorf("model precision must be between 1 and %d bits, got %d", stateBits, precision)
	}
	if len(weights) == 0 {
		return nil, fmt.Errorf("model must contain at least one symbol")
	}

	var total uint64
	for _, w := range weights {
		total += uint64(w.Weight)
	}
	if expected := uint64(1) << precision; total != expected {
		return nil, fmt.Errorf("symbol weights sum to %d, expected 2^%d = %d", total, precision, expected)
	}

	symbols := make(map[T]symbolRange, len(weights))
	cumulative := make([]cumulativeEntry[T], 0, len(weights))

	var running uint32
	for _, w := range weights {
		cumulative = append(cumulative, cumulativeEntry[T]{cumulative: running, symbol: w.Symbol})
		symbols[w.Symbol] = symbolRange{weight: w.Weight, cumulative: running}
		running += w.Weight
	}

	return &Model[T]{symbols: symbols, cumulative: cumulative, precision: precision}, nil
}

// Precision reports the quantization precision in bits.
func (m *Model[T]) Precision() uint32 { return m.precision }

func (m *Model[T]) lookup(symbol T) (symbolRange, error) {
	sr, ok := m.symbols[symbol]
	if !ok {
		return symbolRange{}, fmt.Errorf("symbol %v does not exist in the model", symbol)
	}
	return sr, nil
}

// symbolFor finds the symbol whose cumulative range contains the
// prediction: the last table entry with cumulative value at most the
// prediction. Entry zero has cumulative zero, so the scan always
// terminates.
func (m *Model[T]) symbolFor(prediction uint32) (T, symbolRange) {
	for i := len(m.cumulative) - 1; ; i-- {
		if entry := m.cumulative[i]; entry.cumulative <= prediction {
			return entry.symbol, m.symbols[entry.symbol]
		}
	}
}

func (m *Model[T]) predictionMask() uint32 {
	return uint32(uint64(1)<<m.precision - 1)
}

// Encode compresses a stream of symbols. Every symbol must carry
// nonzero weight in the model.
func Encode[T comparable](model *Model[T], stream []T) ([]byte, error) {
	enc := encoder[T]{segment: lowerBound, model: model}

	// Symbols are pushed in reverse so the decoder pops them in
	// stream order.
	for i := len(stream) - 1; i >= 0; i-- {
		if err := enc.push(stream[i]); err != nil {
			return nil, err
		}
	}

	return enc.bytes(), nil
}

// Decode decompresses an encoded stream back into symbols.
func Decode[T comparable](model *Model[T], stream []byte) ([]T, error) {
	decoder, err := NewDecoder(model, stream)
	if err != nil {
		return nil, err
	}

	var symbols []T
	for {
		symbol, ok, err := decoder.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return symbols, nil
		}
		symbols = append(symbols, symbol)
	}
}

type encoder[T comparable] struct {
	stack   []byte
	segment uint32
	model   *Model[T]
}

func (e *encoder[T]) push(symbol T) error {
	sr, err := e.model.lookup(symbol)
	if err != nil {
		return err
	}

	s := e.segment
	for uint64(s) >= uint64(sr.weight)<<(stateBits-e.model.precision) {
		e.stack = append(e.stack, byte(s))
		s >>= renormBits
	}

	e.segment = (s/sr.weight)<<e.model.precision + s%sr.weight + sr.cumulative
	return nil
}

// bytes emits the final 32-bit state big-endian, followed by the
// renormalisation stack from bottom to top.
func (e *encoder[T]) bytes() []byte {
	out := make([]byte, 0, 4+len(e.stack))
	out = binary.BigEndian.AppendUint32(out, e.segment)
	for i := len(e.stack) - 1; i >= 0; i-- {
		out = append(out, e.stack[i])
	}
	return out
}

// Decoder yields symbols lazily from an encoded stream, terminating
// when the state returns to the empty-message sentinel with no encoded
// bytes left.
type Decoder[T comparable] struct {
	stack   []byte
	segment uint32
	model   *Model[T]
}

// NewDecoder initialises the decoder state from the first bytes of the
// stream.
func NewDecoder[T comparable](model *Model[T], stream []byte) (*Decoder[T], error) {
	stack := make([]byte, len(stream))
	for i, b := range stream {
		stack[len(stream)-1-i] = b
	}

	var segment uint32
	for segment < lowerBound {
		if len(stack) == 0 {
			return nil, fmt.Errorf("encoded stream too short to initialise decoder state: %d bytes", len(stream))
		}
		segment = segment<<renormBits | uint32(stack[len(stack)-1])
		stack = stack[:len(stack)-1]
	}

	return &Decoder[T]{stack: stack, segment: segment, model: model}, nil
}

// Next returns the next symbol, or ok=false once the stream is
// exhausted. A stream that runs out of bytes before reaching the
// sentinel state is an error.
func (d *Decoder[T]) Next() (T, bool, error) {
	var zero T

	// The state can pass through the sentinel mid-stream; the stream
	// ends only once every encoded byte has also been consumed.
	if d.segment == lowerBound && len(d.stack) == 0 {
		return zero, false, nil
	}

	prediction := d.segment & d.model.predictionMask()
	symbol, sr := d.model.symbolFor(prediction)

	s := sr.weight*(d.segment>>d.model.precision) + prediction - sr.cumulative
	for s < lowerBound {
		if len(d.stack) == 0 {
			return zero, false, fmt.Errorf("encoded stream is incorrectly terminated")
		}
		s = s<<renormBits | uint32(d.stack[len(d.stack)-1])
		d.stack = d.stack[:len(d.stack)-1]
	}

	d.segment = s
	return symbol, true, nil
}
