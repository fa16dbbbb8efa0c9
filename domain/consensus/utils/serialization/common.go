package serialization

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
	"github.com/prismledger/prismd/domain/consensus/model/externalapi"
)

// errNoEncodingForType signifies that there's no encoding for the given type.
var errNoEncodingForType = errors.New("there's no encoding for this type")

// WriteElement writes the little endian representation of element to w.
// A nil hash is written as the zero hash, and a hash slice is prefixed with
// its length.
func WriteElement(w io.Writer, element interface{}) error {
	switch e := element.(type) {
	case uint16:
		var buf [2]byte
		binary.LittleEndian.PutUint16(buf[:], e)
		_, err := w.Write(buf[:])
		return err

	case uint64:
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], e)
		_, err := w.Write(buf[:])
		return err

	case *externalapi.DomainHash:
		if e == nil {
			e = externalapi.NewZeroHash()
		}
		_, err := w.Write(e.ByteSlice())
		return err

	case []*externalapi.DomainHash:
		err := WriteElement(w, uint64(len(e)))
		if err != nil {
			return err
		}
		for _, hash := range e {
			err := WriteElement(w, hash)
			if err != nil {
				return err
			}
		}
		return nil
	}

	return errors.Wrapf(errNoEncodingForType, "couldn't find a way to write type %T", element)
}

// WriteElements writes multiple items to w. It is equivalent to multiple
// calls to writeElement.
func WriteElements(w io.Writer, elements ...interface{}) error {
	for _, element := range elements {
		err := WriteElement(w, element)
		if err != nil {
			return err
		}
	}
	return nil
}
