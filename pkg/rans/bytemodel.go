package rans

// NewUniformByteModel returns the model used for payload compression:
// all 256 byte values weighted equally at 8 bits of precision, so any
// payload content is encodable.
func NewUniformByteModel() *Model[byte] {
	weights := make([]SymbolWeight[byte], 256)
	for i := range weights {
		weights[i] = SymbolWeight[byte]{Symbol: byte(i), Weight: 1}
	}

	model, err := NewModel(8, weights)
	if err != nil {
		panic(err)
	}
	return model
}
