package testsupport

import "encoding/binary"

// StringRange is one uuidtext descriptor: a virtual start offset and the
// strings stored in it, each written NUL-terminated.
type StringRange struct {
	Start   uint32
	Strings []string
}

func (r StringRange) size() uint32 {
	var n uint32
	for _, s := range r.Strings {
		n += uint32(len(s)) + 1
	}
	return n
}

// UUIDText encodes a uuidtext image from the given ranges and library path.
func UUIDText(ranges []StringRange, library string) []byte {
	buf := binary.LittleEndian.AppendUint32(nil, 0x66778899)
	buf = binary.LittleEndian.AppendUint32(buf, 2)
	buf = binary.LittleEndian.AppendUint32(buf, 1)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(ranges)))
	for _, r := range ranges {
		buf = binary.LittleEndian.AppendUint32(buf, r.Start)
		buf = binary.LittleEndian.AppendUint32(buf, r.size())
	}
	for _, r := range ranges {
		for _, s := range r.Strings {
			buf = append(buf, s...)
			buf = append(buf, 0)
		}
	}
	buf = append(buf, library...)
	return append(buf, 0)
}

// StringOffset returns the virtual offset of ranges[rangeIndex].Strings[stringIndex].
func StringOffset(ranges []StringRange, rangeIndex, stringIndex int) uint32 {
	r := ranges[rangeIndex]
	offset := r.Start
	for _, s := range r.Strings[:stringIndex] {
		offset += uint32(len(s)) + 1
	}
	return offset
}
