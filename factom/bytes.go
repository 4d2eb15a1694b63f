package factom

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Bytes32 implements encoding.TextMarshaler and encoding.TextUnmarshaler to
// encode and decode hex strings with exactly 32 bytes of data, such as
// ChainIDs and KeyMRs.
type Bytes32 [32]byte

// NewBytes32 allocates a new Bytes32 object with the first 32 bytes of data
// contained in s32.
func NewBytes32(s32 []byte) *Bytes32 {
	b32 := new(Bytes32)
	copy(b32[:], s32)
	return b32
}

// NewBytes32FromString parses s32 as exactly 64 hex characters.
func NewBytes32FromString(s32 string) (Bytes32, error) {
	var b32 Bytes32
	if err := b32.Set(s32); err != nil {
		return Bytes32{}, err
	}
	return b32, nil
}

// Set decodes a hex string with exactly 32 bytes of data into b. This
// implements the pflag.Value interface.
func (b *Bytes32) Set(hexStr string) error {
	return b.UnmarshalText([]byte(hexStr))
}

// Type returns "Bytes32". This implements the pflag.Value interface.
func (b Bytes32) Type() string {
	return "Bytes32"
}

// String encodes b as a hex string.
func (b Bytes32) String() string {
	return hex.EncodeToString(b[:])
}

// IsZero returns true if b is all zeroes. The zero Bytes32 is used by factomd
// as the PrevKeyMR of the first EBlock in a chain.
func (b Bytes32) IsZero() bool {
	return b == Bytes32{}
}

// UnmarshalText decodes a hex string with exactly 32 bytes of data into b.
func (b *Bytes32) UnmarshalText(text []byte) error {
	if len(text) != hex.EncodedLen(len(b)) {
		return fmt.Errorf("%T: invalid length", b)
	}
	if _, err := hex.Decode(b[:], text); err != nil {
		return fmt.Errorf("%T: %w", b, err)
	}
	return nil
}

// MarshalText encodes b as a hex string.
func (b Bytes32) MarshalText() ([]byte, error) {
	text := make([]byte, hex.EncodedLen(len(b)))
	hex.Encode(text, b[:])
	return text, nil
}

// ZeroBytes32 returns an all zero Byte32.
func ZeroBytes32() Bytes32 {
	return Bytes32{}
}

// Bytes implements encoding.TextMarshaler and encoding.TextUnmarshaler to
// encode and decode hex strings, such as an Entry's ExtIDs or Content.
type Bytes []byte

// String encodes b as a hex string.
func (b Bytes) String() string {
	return hex.EncodeToString(b)
}

// UnmarshalJSON decodes a JSON string of hex encoded data into b.
func (b *Bytes) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return fmt.Errorf("%T: expected JSON string", b)
	}
	return b.UnmarshalText([]byte(text))
}

// UnmarshalText decodes a hex string into b.
func (b *Bytes) UnmarshalText(text []byte) error {
	*b = make(Bytes, hex.DecodedLen(len(text)))
	if _, err := hex.Decode(*b, text); err != nil {
		return fmt.Errorf("%T: %w", b, err)
	}
	return nil
}

// MarshalText encodes b as a hex string.
func (b Bytes) MarshalText() ([]byte, error) {
	text := make([]byte, hex.EncodedLen(len(b)))
	hex.Encode(text, b)
	return text, nil
}
