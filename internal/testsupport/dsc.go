package testsupport

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
)

// DSCRange is one shared cache string range for fixture generation.
type DSCRange struct {
	Offset  uint64
	Strings []string
}

// DSC encodes a shared cache strings image. Each range is attributed to the
// image with the same index, and each image gets a synthetic library path.
func DSC(major uint16, ranges []DSCRange, images []uuid.UUID) []byte {
	rangeSize, imageSize := 16, 28
	if major == 2 {
		rangeSize, imageSize = 24, 32
	}
	dataStart := 16 + rangeSize*len(ranges) + imageSize*len(images)

	var data []byte
	rangeOffsets := make([]uint32, len(ranges))
	rangeSizes := make([]uint32, len(ranges))
	for i, r := range ranges {
		rangeOffsets[i] = uint32(dataStart + len(data))
		for _, s := range r.Strings {
			data = append(data, s...)
			data = append(data, 0)
		}
		rangeSizes[i] = uint32(dataStart+len(data)) - rangeOffsets[i]
	}
	pathOffsets := make([]uint32, len(images))
	for i := range images {
		pathOffsets[i] = uint32(dataStart + len(data))
		data = append(data, fmt.Sprintf("/usr/lib/libfixture%d.dylib", i)...)
		data = append(data, 0)
	}

	buf := binary.LittleEndian.AppendUint32(nil, 0x64736368)
	buf = binary.LittleEndian.AppendUint16(buf, major)
	buf = binary.LittleEndian.AppendUint16(buf, 0)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(ranges)))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(images)))
	for i, r := range ranges {
		if major == 2 {
			buf = binary.LittleEndian.AppendUint64(buf, r.Offset)
		} else {
			buf = binary.LittleEndian.AppendUint32(buf, uint32(r.Offset))
		}
		buf = binary.LittleEndian.AppendUint32(buf, rangeOffsets[i])
		buf = binary.LittleEndian.AppendUint32(buf, rangeSizes[i])
		if major == 2 {
			buf = binary.LittleEndian.AppendUint64(buf, uint64(i))
		} else {
			buf = binary.LittleEndian.AppendUint32(buf, uint32(i))
		}
	}
	for i, id := range images {
		if major == 2 {
			buf = binary.LittleEndian.AppendUint64(buf, uint64(i)*0x1000)
		} else {
			buf = binary.LittleEndian.AppendUint32(buf, uint32(i)*0x1000)
		}
		buf = binary.LittleEndian.AppendUint32(buf, 0x1000)
		buf = append(buf, id[:]...)
		buf = binary.LittleEndian.AppendUint32(buf, pathOffsets[i])
	}
	return append(buf, data...)
}
