package suit

import (
	"crypto/sha256"
	"crypto/sha512"
	"fmt"

	"golang.org/x/crypto/sha3"

	"github.com/suit-tools/manifest-generator/suit-golang/pkg/cbor"
)

// SHAKE output lengths in bytes. SHAKE is an extendable-output
// function; these match the one-shot digest sizes of common crypto
// providers.
const (
	shake128Size = 32
	shake256Size = 64
)

// Algorithm identifies a payload digest algorithm.
type Algorithm uint8

// Supported digest algorithms.
const (
	AlgSHA256 Algorithm = iota
	AlgSHA384
	AlgSHA512
	AlgSHAKE128
	AlgSHAKE256
)

// ParseAlgorithm converts a CLI/config algorithm name.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch name {
	case "sha256":
		return AlgSHA256, nil
	case "sha384":
		return AlgSHA384, nil
	case "sha512":
		return AlgSHA512, nil
	case "shake128":
		return AlgSHAKE128, nil
	case "shake256":
		return AlgSHAKE256, nil
	default:
		return 0, fmt.Errorf("unsupported digest algorithm %q (supported: sha256, sha384, sha512, shake128, shake256)", name)
	}
}

// String returns the configuration name of the algorithm.
func (a Algorithm) String() string {
	switch a {
	case AlgSHA256:
		return "sha256"
	case AlgSHA384:
		return "sha384"
	case AlgSHA512:
		return "sha512"
	case AlgSHAKE128:
		return "shake128"
	case AlgSHAKE256:
		return "shake256"
	default:
		return fmt.Sprintf("algorithm(%d)", uint8(a))
	}
}

// cosePoint returns the COSE algorithm codepoint, without the negation
// applied by the CBOR encoding.
func (a Algorithm) cosePoint() uint64 {
	switch a {
	case AlgSHA256:
		return coseAlgSHA256
	case AlgSHA384:
		return coseAlgSHA384
	case AlgSHA512:
		return coseAlgSHA512
	case AlgSHAKE128:
		return coseAlgSHAKE128
	case AlgSHAKE256:
		return coseAlgSHAKE256
	default:
		panic(fmt.Sprintf("no COSE codepoint for algorithm %d", uint8(a)))
	}
}

// CBOR lowers the algorithm to its COSE identifier, a negative
// integer.
func (a Algorithm) CBOR() cbor.Value {
	return cbor.Nint(a.cosePoint())
}

// Digest is a payload digest together with the algorithm that produced
// it.
type Digest struct {
	Algorithm Algorithm
	Bytes     []byte
}

// NewDigest hashes data with the given algorithm.
func NewDigest(algorithm Algorithm, data []byte) (Digest, error) {
	var digest []byte

	switch algorithm {
	case AlgSHA256:
		sum := sha256.Sum256(data)
		digest = sum[:]
	case AlgSHA384:
		sum := sha512.Sum384(data)
		digest = sum[:]
	case AlgSHA512:
		sum := sha512.Sum512(data)
		digest = sum[:]
	case AlgSHAKE128:
		digest = make([]byte, shake128Size)
		sha3.ShakeSum128(digest, data)
	case AlgSHAKE256:
		digest = make([]byte, shake256Size)
		sha3.ShakeSum256(digest, data)
	default:
		return Digest{}, fmt.Errorf("unsupported digest algorithm %d", uint8(algorithm))
	}

	return Digest{Algorithm: algorithm, Bytes: digest}, nil
}

// CBOR lowers the digest to its SUIT form: an array of the COSE
// algorithm identifier and the digest bytes.
func (d Digest) CBOR() cbor.Value {
	return cbor.Array(d.Algorithm.CBOR(), cbor.ByteString(d.Bytes))
}
