// Package tcp ingests records from Teltonika GPS trackers speaking codec 8
// and codec 8 extended over raw TCP.
package tcp

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"
)

const (
	Codec8  byte = 0x08
	Codec8E byte = 0x8E

	maxIMEILen = 64
	// maxDataLen bounds a single AVL data field. Devices send at most a few
	// kilobytes per packet.
	maxDataLen = 64 << 10
)

var (
	// ErrInvalidPacket marks a fully framed packet whose content is unusable.
	// The stream stays in sync, so the connection may continue.
	ErrInvalidPacket = errors.New("invalid avl packet")
	// ErrFraming means the stream can no longer be trusted.
	ErrFraming = errors.New("avl framing error")

	errShort = errors.New("unexpected end of data")
)

// AVLRecord is one decoded GPS element. IO elements are validated but not
// kept.
type AVLRecord struct {
	Time       time.Time
	Priority   uint8
	Longitude  float64
	Latitude   float64
	Altitude   int16
	Angle      uint16
	Satellites uint8
	Speed      uint16
}

type Packet struct {
	Codec   byte
	Records []AVLRecord
}

// ReadIMEI reads the handshake: a big-endian uint16 length then the ASCII
// IMEI.
func ReadIMEI(r io.Reader) (string, error) {
	var n uint16
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return "", err
	}
	if n == 0 || n > maxIMEILen {
		return "", fmt.Errorf("%w: imei length %d", ErrFraming, n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// ValidIMEI reports whether s is a 15-digit IMEI.
func ValidIMEI(s string) bool {
	if len(s) != 15 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// ReadPacket reads one AVL packet: four zero bytes, data length, data field
// and a four-byte CRC over the data field.
func ReadPacket(r io.Reader) (*Packet, error) {
	var header [8]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	if binary.BigEndian.Uint32(header[:4]) != 0 {
		return nil, fmt.Errorf("%w: bad preamble", ErrFraming)
	}
	size := binary.BigEndian.Uint32(header[4:])
	if size == 0 || size > maxDataLen {
		return nil, fmt.Errorf("%w: data length %d", ErrFraming, size)
	}

	frame := make([]byte, size+4)
	if _, err := io.ReadFull(r, frame); err != nil {
		return nil, err
	}
	data := frame[:size]

	want := binary.BigEndian.Uint32(frame[size:])
	if got := uint32(crc16IBM(data)); got != want {
		return nil, fmt.Errorf("%w: crc %04x, expected %04x", ErrInvalidPacket, got, want)
	}

	pkt, err := decodeData(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPacket, err)
	}
	return pkt, nil
}

func decodeData(data []byte) (*Packet, error) {
	c := &cursor{b: data}
	codec := c.u8()
	if c.err == nil && codec != Codec8 && codec != Codec8E {
		return nil, fmt.Errorf("unsupported codec 0x%02x", codec)
	}

	n := int(c.u8())
	pkt := &Packet{Codec: codec, Records: make([]AVLRecord, 0, n)}
	for i := 0; i < n && c.err == nil; i++ {
		rec := AVLRecord{
			Time:     time.UnixMilli(int64(c.u64())).UTC(),
			Priority: c.u8(),
		}
		rec.Longitude = float64(int32(c.u32())) / 1e7
		rec.Latitude = float64(int32(c.u32())) / 1e7
		rec.Altitude = int16(c.u16())
		rec.Angle = c.u16()
		rec.Satellites = c.u8()
		rec.Speed = c.u16()

		if codec == Codec8E {
			c.skipIOExtended()
		} else {
			c.skipIO()
		}
		pkt.Records = append(pkt.Records, rec)
	}

	trailer := int(c.u8())
	if c.err != nil {
		return nil, c.err
	}
	if trailer != n {
		return nil, fmt.Errorf("record count mismatch: %d vs %d", n, trailer)
	}
	if c.off != len(c.b) {
		return nil, fmt.Errorf("%d trailing bytes", len(c.b)-c.off)
	}
	return pkt, nil
}

// cursor reads big-endian fields and latches the first error.
type cursor struct {
	b   []byte
	off int
	err error
}

func (c *cursor) next(n int) []byte {
	if c.err != nil {
		return nil
	}
	if n < 0 || c.off+n > len(c.b) {
		c.err = errShort
		return nil
	}
	p := c.b[c.off : c.off+n]
	c.off += n
	return p
}

func (c *cursor) u8() uint8 {
	if p := c.next(1); p != nil {
		return p[0]
	}
	return 0
}

func (c *cursor) u16() uint16 {
	if p := c.next(2); p != nil {
		return binary.BigEndian.Uint16(p)
	}
	return 0
}

func (c *cursor) u32() uint32 {
	if p := c.next(4); p != nil {
		return binary.BigEndian.Uint32(p)
	}
	return 0
}

func (c *cursor) u64() uint64 {
	if p := c.next(8); p != nil {
		return binary.BigEndian.Uint64(p)
	}
	return 0
}

// skipIO walks a codec 8 IO block: event id, total count, then groups of
// 1, 2, 4 and 8 byte values keyed by one-byte ids.
func (c *cursor) skipIO() {
	c.u8()
	c.u8()
	for _, size := range []int{1, 2, 4, 8} {
		n := int(c.u8())
		c.next(n * (1 + size))
	}
}

// skipIOExtended walks a codec 8E IO block, which widens ids and counts to
// two bytes and ends with variable-length values.
func (c *cursor) skipIOExtended() {
	c.u16()
	c.u16()
	for _, size := range []int{1, 2, 4, 8} {
		n := int(c.u16())
		c.next(n * (2 + size))
	}
	nx := int(c.u16())
	for i := 0; i < nx && c.err == nil; i++ {
		c.u16()
		c.next(int(c.u16()))
	}
}
