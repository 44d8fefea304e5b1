package meshio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"math"
)

// Extension is the file name extension of containers.
const Extension = ".tgm"

const (
	magic   = 0x464d4754 // "TGMF"
	version = 1

	headerSize = 16
)

var (
	// ErrInvalidFormat is returned when the bytes are not a meshio container.
	ErrInvalidFormat = errors.New("meshio: invalid format")
	// ErrChecksumMismatch is returned when the stored block fails its CRC check.
	ErrChecksumMismatch = errors.New("meshio: checksum mismatch")
)

// Marshal encodes fd into a self-describing container.
//
// Layout:
//
//	Magic       u32  "TGMF"
//	Version     u16
//	Compression u8
//	Reserved    u8
//	Checksum    u32  CRC32 (IEEE) of the block
//	BlockLength u32
//	Block            compressed payload, see compressBlock
//
// Payload:
//
//	NumPoints u64, then NumPoints*3 f64
//	NumCells  u64, then per cell: arity u8, arity*u32
//	NumCellArrays u32, then per array: name (u16 len + bytes), NumCells*i64
//	NumPointArrays u32, then per array: name (u16 len + bytes), NumPoints*i64
func Marshal(fd *FileData, c Compression) ([]byte, error) {
	if err := fd.Validate(); err != nil {
		return nil, err
	}

	pb := newPayloadBuffer(make([]byte, 0, payloadSizeHint(fd)))

	pb.writeUint64(uint64(fd.NumPoints()))
	for _, v := range fd.Points {
		pb.writeUint64(math.Float64bits(v))
	}

	pb.writeUint64(uint64(len(fd.Cells)))
	for _, cell := range fd.Cells {
		pb.buf = append(pb.buf, byte(len(cell)))
		for _, idx := range cell {
			pb.writeUint32(uint32(idx)) //nolint:gosec // validated against NumPoints
		}
	}

	writeArrays(pb, fd.CellData)
	writeArrays(pb, fd.PointData)

	if pb.err != nil {
		return nil, pb.err
	}

	block, err := compressBlock(pb.buf, c)
	if err != nil {
		return nil, err
	}

	out := make([]byte, headerSize, headerSize+len(block))
	binary.LittleEndian.PutUint32(out[0:4], magic)
	binary.LittleEndian.PutUint16(out[4:6], version)
	out[6] = byte(c)
	binary.LittleEndian.PutUint32(out[8:12], crc32.ChecksumIEEE(block))
	binary.LittleEndian.PutUint32(out[12:16], uint32(len(block))) //nolint:gosec // bounded by compressBlock

	return append(out, block...), nil
}

func payloadSizeHint(fd *FileData) int {
	n := 16 + 8*len(fd.Points) + 8
	for _, c := range fd.Cells {
		n += 1 + 4*len(c)
	}
	for _, a := range fd.CellData {
		n += 2 + len(a.Name) + 8*len(a.Values)
	}
	for _, a := range fd.PointData {
		n += 2 + len(a.Name) + 8*len(a.Values)
	}
	return n
}

func writeArrays(pb *payloadBuffer, arrays []Array) {
	pb.writeUint32(uint32(len(arrays))) //nolint:gosec // array count is tiny
	for _, a := range arrays {
		pb.writeString(a.Name)
		for _, v := range a.Values {
			pb.writeUint64(uint64(v)) //nolint:gosec // bit pattern round trip
		}
	}
}

// Unmarshal decodes a container produced by Marshal.
func Unmarshal(data []byte) (*FileData, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidFormat, len(data))
	}
	if m := binary.LittleEndian.Uint32(data[0:4]); m != magic {
		return nil, fmt.Errorf("%w: magic %x", ErrInvalidFormat, m)
	}
	if v := binary.LittleEndian.Uint16(data[4:6]); v != version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidFormat, v)
	}
	c := Compression(data[6])
	checksum := binary.LittleEndian.Uint32(data[8:12])
	length := binary.LittleEndian.Uint32(data[12:16])

	if uint64(len(data)-headerSize) < uint64(length) {
		return nil, fmt.Errorf("%w: truncated block", ErrInvalidFormat)
	}
	block := data[headerSize : headerSize+int(length)]
	if crc32.ChecksumIEEE(block) != checksum {
		return nil, ErrChecksumMismatch
	}

	payload, err := decompressBlock(block, c)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}

	return decodePayload(payload)
}

func decodePayload(payload []byte) (*FileData, error) {
	pb := newPayloadBuffer(payload)
	fd := &FileData{}

	numPoints := pb.readCount(24)
	fd.Points = make([]float64, 0, 3*numPoints)
	for range 3 * numPoints {
		fd.Points = append(fd.Points, math.Float64frombits(pb.readUint64()))
	}

	numCells := pb.readCount(13)
	fd.Cells = make([][]int, 0, numCells)
	for range numCells {
		arity := int(pb.readByte())
		cell := make([]int, arity)
		for k := range cell {
			cell[k] = int(pb.readUint32())
		}
		fd.Cells = append(fd.Cells, cell)
	}

	fd.CellData = readArrays(pb, numCells)
	fd.PointData = readArrays(pb, numPoints)

	if pb.err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFormat, pb.err)
	}
	if err := fd.Validate(); err != nil {
		return nil, err
	}
	return fd, nil
}

func readArrays(pb *payloadBuffer, n int) []Array {
	count := int(pb.readUint32())
	if pb.err != nil || count == 0 {
		return nil
	}

	arrays := make([]Array, 0, min(count, 64))
	for range count {
		a := Array{Name: pb.readString()}
		if pb.err != nil {
			return nil
		}
		a.Values = make([]int64, n)
		for i := range a.Values {
			a.Values[i] = int64(pb.readUint64()) //nolint:gosec // bit pattern round trip
		}
		arrays = append(arrays, a)
	}
	return arrays
}

// Encode writes the container for fd to w.
func Encode(w io.Writer, fd *FileData, c Compression) error {
	b, err := Marshal(fd, c)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// Decode reads a whole container from r.
func Decode(r io.Reader) (*FileData, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Unmarshal(b)
}

type payloadBuffer struct {
	buf []byte
	pos int
	err error
}

func newPayloadBuffer(b []byte) *payloadBuffer {
	return &payloadBuffer{buf: b}
}

func (p *payloadBuffer) writeUint64(v uint64) {
	if p.err != nil {
		return
	}
	p.buf = binary.LittleEndian.AppendUint64(p.buf, v)
}

func (p *payloadBuffer) writeUint32(v uint32) {
	if p.err != nil {
		return
	}
	p.buf = binary.LittleEndian.AppendUint32(p.buf, v)
}

func (p *payloadBuffer) writeString(s string) {
	if p.err != nil {
		return
	}
	if len(s) > math.MaxUint16 {
		p.err = fmt.Errorf("string too long: %d", len(s))
		return
	}
	p.buf = binary.LittleEndian.AppendUint16(p.buf, uint16(len(s)))
	p.buf = append(p.buf, s...)
}

func (p *payloadBuffer) need(n int) bool {
	if p.err != nil {
		return false
	}
	if p.pos+n > len(p.buf) {
		p.err = io.ErrUnexpectedEOF
		return false
	}
	return true
}

func (p *payloadBuffer) readByte() byte {
	if !p.need(1) {
		return 0
	}
	v := p.buf[p.pos]
	p.pos++
	return v
}

func (p *payloadBuffer) readUint64() uint64 {
	if !p.need(8) {
		return 0
	}
	v := binary.LittleEndian.Uint64(p.buf[p.pos:])
	p.pos += 8
	return v
}

func (p *payloadBuffer) readUint32() uint32 {
	if !p.need(4) {
		return 0
	}
	v := binary.LittleEndian.Uint32(p.buf[p.pos:])
	p.pos += 4
	return v
}

// readCount reads a u64 element count and rejects counts that cannot fit in
// the remaining bytes at minSize bytes per element.
func (p *payloadBuffer) readCount(minSize int) int {
	n := p.readUint64()
	if p.err != nil {
		return 0
	}
	if n > uint64(len(p.buf)-p.pos)/uint64(minSize) {
		p.err = fmt.Errorf("count %d exceeds remaining payload", n)
		return 0
	}
	return int(n) //nolint:gosec // bounded by payload length
}

func (p *payloadBuffer) readString() string {
	if !p.need(2) {
		return ""
	}
	l := int(binary.LittleEndian.Uint16(p.buf[p.pos:]))
	p.pos += 2

	if !p.need(l) {
		return ""
	}
	s := string(p.buf[p.pos : p.pos+l])
	p.pos += l
	return s
}
