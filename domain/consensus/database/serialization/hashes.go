package serialization

import (
	"github.com/pkg/errors"
	"github.com/prismledger/prismd/domain/consensus/model/externalapi"
	"google.golang.org/protobuf/encoding/protowire"
)

// DbHashes is stored in the protobuf wire format of
//
//	message DbHashes {
//	  repeated bytes hashes = 1;
//	}
const dbHashesHashesFieldNumber protowire.Number = 1

// HashesToDBHashes serializes a list of hashes, keeping their order
func HashesToDBHashes(hashes []*externalapi.DomainHash) []byte {
	serialized := make([]byte, 0, len(hashes)*(externalapi.DomainHashSize+2))
	for _, hash := range hashes {
		serialized = protowire.AppendTag(serialized, dbHashesHashesFieldNumber, protowire.BytesType)
		serialized = protowire.AppendBytes(serialized, hash.ByteSlice())
	}
	return serialized
}

// DBHashesToHashes deserializes a list of hashes serialized with HashesToDBHashes.
// Unknown fields are skipped.
func DBHashesToHashes(serialized []byte) ([]*externalapi.DomainHash, error) {
	hashes := make([]*externalapi.DomainHash, 0)
	for len(serialized) > 0 {
		fieldNumber, wireType, tagLength := protowire.ConsumeTag(serialized)
		if tagLength < 0 {
			return nil, errors.Wrap(protowire.ParseError(tagLength), "malformed DbHashes tag")
		}
		serialized = serialized[tagLength:]

		if fieldNumber != dbHashesHashesFieldNumber || wireType != protowire.BytesType {
			valueLength := protowire.ConsumeFieldValue(fieldNumber, wireType, serialized)
			if valueLength < 0 {
				return nil, errors.Wrapf(protowire.ParseError(valueLength),
					"malformed DbHashes field %d", fieldNumber)
			}
			serialized = serialized[valueLength:]
			continue
		}

		hashBytes, valueLength := protowire.ConsumeBytes(serialized)
		if valueLength < 0 {
			return nil, errors.Wrap(protowire.ParseError(valueLength), "malformed DbHashes hash")
		}
		serialized = serialized[valueLength:]

		hash, err := externalapi.NewDomainHashFromByteSlice(hashBytes)
		if err != nil {
			return nil, err
		}
		hashes = append(hashes, hash)
	}
	return hashes, nil
}
