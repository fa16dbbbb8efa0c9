package binaryserialization

import "github.com/pkg/errors"

// SerializeLevel serializes a proposer level
func SerializeLevel(level uint64) []byte {
	var levelBytes [8]byte
	byteOrder.PutUint64(levelBytes[:], level)
	return levelBytes[:]
}

// DeserializeLevel deserializes a proposer level
func DeserializeLevel(levelBytes []byte) (uint64, error) {
	if len(levelBytes) != 8 {
		return 0, errors.Errorf("invalid level length. Want: 8, got: %d", len(levelBytes))
	}
	return byteOrder.Uint64(levelBytes), nil
}
