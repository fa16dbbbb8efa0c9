package binaryserialization

import "encoding/binary"

// Big endian keeps the byte order of serialized numbers equal
// to their numeric order, so database cursors visit them sorted.
var byteOrder = binary.BigEndian
