package serialization

import (
	"testing"

	"github.com/prismledger/prismd/domain/consensus/model/externalapi"
	"google.golang.org/protobuf/encoding/protowire"
)

func TestDBHashesKeepOrder(t *testing.T) {
	hashes := []*externalapi.DomainHash{
		externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{3}),
		externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{1}),
		externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{2}),
	}

	deserialized, err := DBHashesToHashes(HashesToDBHashes(hashes))
	if err != nil {
		t.Fatalf("DBHashesToHashes: %+v", err)
	}
	if !externalapi.HashesEqual(deserialized, hashes) {
		t.Fatalf("expected %s, got %s", hashes, deserialized)
	}

	empty, err := DBHashesToHashes(HashesToDBHashes(nil))
	if err != nil {
		t.Fatalf("DBHashesToHashes: %+v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Fatalf("expected an empty non-nil list, got %v", empty)
	}
}

func TestDBHashesSkipsUnknownFields(t *testing.T) {
	hash := externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{7})
	serialized := protowire.AppendTag(nil, 2, protowire.VarintType)
	serialized = protowire.AppendVarint(serialized, 300)
	serialized = append(serialized, HashesToDBHashes([]*externalapi.DomainHash{hash})...)

	deserialized, err := DBHashesToHashes(serialized)
	if err != nil {
		t.Fatalf("DBHashesToHashes: %+v", err)
	}
	if len(deserialized) != 1 || !deserialized[0].Equal(hash) {
		t.Fatalf("expected [%s], got %s", hash, deserialized)
	}
}

func TestDBHashesMalformed(t *testing.T) {
	tests := []struct {
		name       string
		serialized []byte
	}{
		{
			name:       "truncated hash",
			serialized: HashesToDBHashes([]*externalapi.DomainHash{externalapi.NewZeroHash()})[:10],
		},
		{
			name:       "short hash",
			serialized: protowire.AppendBytes(protowire.AppendTag(nil, 1, protowire.BytesType), []byte{1, 2, 3}),
		},
		{
			name:       "bad tag",
			serialized: []byte{0x80},
		},
	}
	for _, test := range tests {
		_, err := DBHashesToHashes(test.serialized)
		if err == nil {
			t.Fatalf("%s: DBHashesToHashes unexpectedly succeeded", test.name)
		}
	}
}
