package hashset

import (
	"testing"

	"github.com/prismledger/prismd/domain/consensus/model/externalapi"
)

func TestHashSet(t *testing.T) {
	hash1 := externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{1})
	hash2 := externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{2})
	hash3 := externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{3})

	set := NewFromSlice(hash3, hash1, hash1)
	if len(set) != 2 {
		t.Fatalf("expected 2 hashes, got %d", len(set))
	}
	if !set.Contains(hash1) || set.Contains(hash2) {
		t.Fatalf("unexpected set contents: %s", set)
	}

	clone := set.Clone()
	clone.Add(hash2)
	set.Remove(hash3)
	if set.Contains(hash2) || !clone.Contains(hash3) {
		t.Fatalf("a clone must not share its contents with the original")
	}

	sorted := clone.ToSortedSlice()
	expected := []*externalapi.DomainHash{hash1, hash2, hash3}
	if !externalapi.HashesEqual(sorted, expected) {
		t.Fatalf("expected %s, got %s", expected, sorted)
	}
}
