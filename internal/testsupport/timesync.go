package testsupport

import (
	"encoding/binary"

	"github.com/google/uuid"
)

// TimesyncBoot describes one boot record for fixture generation.
type TimesyncBoot struct {
	BootUUID    uuid.UUID
	Numerator   uint32
	Denominator uint32
	BootTime    int64
	Records     []TimesyncRecord
}

// TimesyncRecord is one kernel/wall time sample.
type TimesyncRecord struct {
	KernelTime uint64
	WallTime   int64
}

// Timesync encodes a timesync file image.
func Timesync(boots ...TimesyncBoot) []byte {
	var buf []byte
	for _, b := range boots {
		buf = binary.LittleEndian.AppendUint16(buf, 0xbbb0)
		buf = binary.LittleEndian.AppendUint16(buf, 48)
		buf = binary.LittleEndian.AppendUint32(buf, 0)
		buf = append(buf, b.BootUUID[:]...)
		buf = binary.LittleEndian.AppendUint32(buf, b.Numerator)
		buf = binary.LittleEndian.AppendUint32(buf, b.Denominator)
		buf = binary.LittleEndian.AppendUint64(buf, uint64(b.BootTime))
		buf = binary.LittleEndian.AppendUint32(buf, 0)
		buf = binary.LittleEndian.AppendUint32(buf, 0)
		for _, rec := range b.Records {
			buf = binary.LittleEndian.AppendUint32(buf, 0x207354)
			buf = binary.LittleEndian.AppendUint32(buf, 0)
			buf = binary.LittleEndian.AppendUint64(buf, rec.KernelTime)
			buf = binary.LittleEndian.AppendUint64(buf, uint64(rec.WallTime))
			buf = binary.LittleEndian.AppendUint32(buf, 0)
			buf = binary.LittleEndian.AppendUint32(buf, 0)
		}
	}
	return buf
}
