package hashset

import (
	"sort"
	"strings"

	"github.com/prismledger/prismd/domain/consensus/model/externalapi"
)

// HashSet is an unordered set of block hashes
type HashSet map[externalapi.DomainHash]struct{}

// New returns an empty HashSet
func New() HashSet {
	return HashSet{}
}

// NewFromSlice returns a HashSet holding the given hashes
func NewFromSlice(hashes ...*externalapi.DomainHash) HashSet {
	set := make(HashSet, len(hashes))
	for _, hash := range hashes {
		set.Add(hash)
	}
	return set
}

func (hs HashSet) String() string {
	hashStrings := make([]string, 0, len(hs))
	for _, hash := range hs.ToSortedSlice() {
		hashStrings = append(hashStrings, hash.String())
	}
	return strings.Join(hashStrings, ", ")
}

// Add adds hash to the set
func (hs HashSet) Add(hash *externalapi.DomainHash) {
	hs[*hash] = struct{}{}
}

// Remove removes hash from the set
func (hs HashSet) Remove(hash *externalapi.DomainHash) {
	delete(hs, *hash)
}

// Contains returns whether hash is in the set
func (hs HashSet) Contains(hash *externalapi.DomainHash) bool {
	_, ok := hs[*hash]
	return ok
}

// Clone returns a copy of the set
func (hs HashSet) Clone() HashSet {
	clone := make(HashSet, len(hs))
	for hash := range hs {
		clone[hash] = struct{}{}
	}
	return clone
}

// ToSortedSlice returns the hashes of the set in ascending order
func (hs HashSet) ToSortedSlice() []*externalapi.DomainHash {
	slice := make([]*externalapi.DomainHash, 0, len(hs))
	for hash := range hs {
		hash := hash
		slice = append(slice, &hash)
	}
	sort.Slice(slice, func(i, j int) bool {
		return slice[i].Less(slice[j])
	})
	return slice
}
