package externalapi

import (
	"bytes"
	"encoding/hex"

	"github.com/pkg/errors"
)

// DomainHashSize is the size in bytes of a block hash
const DomainHashSize = 32

// DomainHash identifies a block. It is read-only, so it is safe to share
// between blocks, stores and goroutines.
type DomainHash struct {
	hashArray [DomainHashSize]byte
}

// NewZeroHash returns the hash with all bits set to 0
func NewZeroHash() *DomainHash {
	return &DomainHash{}
}

// NewDomainHashFromByteArray copies the given bytes into a new DomainHash
func NewDomainHashFromByteArray(hashBytes *[DomainHashSize]byte) *DomainHash {
	return &DomainHash{hashArray: *hashBytes}
}

// NewDomainHashFromByteSlice copies the given bytes into a new DomainHash.
// The slice must be exactly DomainHashSize long.
func NewDomainHashFromByteSlice(hashBytes []byte) (*DomainHash, error) {
	if len(hashBytes) != DomainHashSize {
		return nil, errors.Errorf("invalid hash size. Want: %d, got: %d",
			DomainHashSize, len(hashBytes))
	}
	hash := &DomainHash{}
	copy(hash.hashArray[:], hashBytes)
	return hash, nil
}

// NewDomainHashFromString parses a hash out of its hex encoding
func NewDomainHashFromString(hashString string) (*DomainHash, error) {
	if len(hashString) != DomainHashSize*2 {
		return nil, errors.Errorf("hash string length is %d, while it should be %d",
			len(hashString), DomainHashSize*2)
	}
	hashBytes, err := hex.DecodeString(hashString)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return NewDomainHashFromByteSlice(hashBytes)
}

func (hash DomainHash) String() string {
	return hex.EncodeToString(hash.hashArray[:])
}

// ByteSlice returns a copy of the hash bytes
func (hash *DomainHash) ByteSlice() []byte {
	return append([]byte(nil), hash.hashArray[:]...)
}

// Equal returns whether hash equals to other. Two nil hashes are equal.
func (hash *DomainHash) Equal(other *DomainHash) bool {
	if hash == nil || other == nil {
		return hash == other
	}
	return hash.hashArray == other.hashArray
}

// Less orders hashes by their bytes, first byte most significant. Ties
// between leader candidates are broken in favor of the smaller hash.
func (hash *DomainHash) Less(other *DomainHash) bool {
	return bytes.Compare(hash.hashArray[:], other.hashArray[:]) < 0
}

// CloneHashes returns a shallow clone of the given slice, keeping nil as nil
func CloneHashes(hashes []*DomainHash) []*DomainHash {
	if hashes == nil {
		return nil
	}
	return append(make([]*DomainHash, 0, len(hashes)), hashes...)
}

// HashesEqual returns whether both slices hold equal hashes in the same order
func HashesEqual(a, b []*DomainHash) bool {
	if len(a) != len(b) {
		return false
	}
	for i, hash := range a {
		if !hash.Equal(b[i]) {
			return false
		}
	}
	return true
}
