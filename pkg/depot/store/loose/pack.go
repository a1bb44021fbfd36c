package loose

import (
	"bufio"
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/bctnry/depotview/pkg/depot/store"
)

// object types as they appear in the per-object header inside a .pack file.
const (
	packCommit = 1
	packTree = 2
	packBlob = 3
	packTag = 4
	packOfsDelta = 6
	packRefDelta = 7
)

// delta chains longer than this are considered corrupt.
const maxDeltaDepth = 4096

const packIndexV2Magic = 0xff744f63

var ErrMalformedPackIndex = errors.New("Malformed pack index")

// an in-memory copy of a .idx file. both versions are normalized into
// the same three tables:
// 1.  names: the sorted raw object ids, hashSize bytes each;
// 2.  offsets: 4-byte pack offsets, with the msb set meaning "look into
//     largeOffsets at the remaining 31 bits" (v2 only);
// 3.  largeOffsets: 8-byte pack offsets.
type packIndex struct {
	packPath string
	hashSize int
	fanout [256]uint32
	names []byte
	offsets []uint32
	largeOffsets []uint64
}

func loadPackIndex(idxPath string, hashSize int) (*packIndex, error) {
	b, err := os.ReadFile(idxPath)
	if err != nil { return nil, err }
	res := &packIndex{
		packPath: strings.TrimSuffix(idxPath, ".idx") + ".pack",
		hashSize: hashSize,
	}
	if len(b) >= 8 && binary.BigEndian.Uint32(b) == packIndexV2Magic {
		version := binary.BigEndian.Uint32(b[4:])
		if version != 2 {
			return nil, fmt.Errorf("Unsupported pack index version %d in %s", version, idxPath)
		}
		err = res.parseV2(b[8:])
	} else {
		err = res.parseV1(b)
	}
	if err != nil { return nil, fmt.Errorf("%s: %w", idxPath, err) }
	return res, nil
}

func (pi *packIndex) parseFanout(b []byte) ([]byte, error) {
	if len(b) < 256*4 { return nil, ErrMalformedPackIndex }
	last := uint32(0)
	for i := range 256 {
		v := binary.BigEndian.Uint32(b[i*4:])
		if v < last { return nil, ErrMalformedPackIndex }
		pi.fanout[i] = v
		last = v
	}
	return b[256*4:], nil
}

// v1 layout: fanout, then (4-byte offset, name) per object.
func (pi *packIndex) parseV1(b []byte) error {
	rest, err := pi.parseFanout(b)
	if err != nil { return err }
	n := int(pi.fanout[255])
	entrySize := 4 + pi.hashSize
	if len(rest) < n*entrySize { return ErrMalformedPackIndex }
	pi.names = make([]byte, 0, n*pi.hashSize)
	pi.offsets = make([]uint32, n)
	for i := range n {
		entry := rest[i*entrySize:(i+1)*entrySize]
		pi.offsets[i] = binary.BigEndian.Uint32(entry)
		pi.names = append(pi.names, entry[4:]...)
	}
	return nil
}

// v2 layout: fanout, names, crc32s, 4-byte offsets, 8-byte offsets,
// followed by the checksums.
func (pi *packIndex) parseV2(b []byte) error {
	rest, err := pi.parseFanout(b)
	if err != nil { return err }
	n := int(pi.fanout[255])
	if len(rest) < n*(pi.hashSize+4+4) { return ErrMalformedPackIndex }
	pi.names = rest[:n*pi.hashSize]
	rest = rest[n*pi.hashSize:]
	rest = rest[n*4:]
	pi.offsets = make([]uint32, n)
	largeCount := 0
	for i := range n {
		pi.offsets[i] = binary.BigEndian.Uint32(rest[i*4:])
		if pi.offsets[i]&0x80000000 != 0 { largeCount += 1 }
	}
	rest = rest[n*4:]
	if len(rest) < largeCount*8 { return ErrMalformedPackIndex }
	pi.largeOffsets = make([]uint64, largeCount)
	for i := range largeCount {
		pi.largeOffsets[i] = binary.BigEndian.Uint64(rest[i*8:])
	}
	return nil
}

func (pi *packIndex) name(i int) []byte {
	return pi.names[i*pi.hashSize:(i+1)*pi.hashSize]
}

func (pi *packIndex) lookup(raw []byte) (int64, bool) {
	if len(raw) != pi.hashSize { return 0, false }
	first := int(raw[0])
	lo := 0
	if first > 0 { lo = int(pi.fanout[first-1]) }
	hi := int(pi.fanout[first])
	i := lo + sort.Search(hi-lo, func(k int) bool {
		return bytes.Compare(pi.name(lo+k), raw) >= 0
	})
	if i >= hi || !bytes.Equal(pi.name(i), raw) { return 0, false }
	off := pi.offsets[i]
	if off&0x80000000 == 0 { return int64(off), true }
	j := int(off & 0x7fffffff)
	if j >= len(pi.largeOffsets) { return 0, false }
	return int64(pi.largeOffsets[j]), true
}

type packedEntry struct {
	typ int
	// size of the inflated data. for deltas that's the delta itself.
	size int64
	// absolute offset of the base object. OFS_DELTA only.
	baseOffset int64
	// raw id of the base object. REF_DELTA only.
	baseId []byte
	dataOffset int64
}

// the header is a varint of type & size: the first byte carries 3 bits
// of type and 4 bits of size, the following bytes 7 bits of size each.
// OFS_DELTA then has the negative base offset in git's "offset encoding"
// and REF_DELTA the raw base id.
func readPackedEntryHeader(f io.ReaderAt, offset int64, hashSize int) (packedEntry, error) {
	r := bufio.NewReader(io.NewSectionReader(f, offset, math.MaxInt64 - offset))
	n := int64(0)
	next := func() (byte, error) {
		b, err := r.ReadByte()
		if err == nil { n += 1 }
		return b, err
	}
	b, err := next()
	if err != nil { return packedEntry{}, err }
	res := packedEntry{
		typ: int((b >> 4) & 0x7),
		size: int64(b & 0xf),
	}
	shift := 4
	for b&0x80 != 0 {
		b, err = next()
		if err != nil { return packedEntry{}, err }
		if shift > 56 { return packedEntry{}, fmt.Errorf("Size of object at offset %d overflows", offset) }
		res.size |= int64(b&0x7f) << shift
		shift += 7
	}
	if res.size < 0 || res.size > store.MAX_OBJECT_SIZE {
		return packedEntry{}, fmt.Errorf("Object at offset %d is too large (%d bytes)", offset, res.size)
	}
	switch res.typ {
	case packOfsDelta:
		b, err = next()
		if err != nil { return packedEntry{}, err }
		rel := int64(b & 0x7f)
		for b&0x80 != 0 {
			b, err = next()
			if err != nil { return packedEntry{}, err }
			rel = ((rel + 1) << 7) | int64(b&0x7f)
		}
		if rel <= 0 || rel > offset {
			return packedEntry{}, fmt.Errorf("Invalid delta base offset at %d", offset)
		}
		res.baseOffset = offset - rel
	case packRefDelta:
		res.baseId = make([]byte, hashSize)
		for i := range hashSize {
			res.baseId[i], err = next()
			if err != nil { return packedEntry{}, err }
		}
	}
	res.dataOffset = offset + n
	return res, nil
}

func inflateAt(f io.ReaderAt, offset int64, size int64) ([]byte, error) {
	if size < 0 || size > store.MAX_OBJECT_SIZE {
		return nil, fmt.Errorf("Refusing to inflate %d bytes at offset %d", size, offset)
	}
	zr, err := zlib.NewReader(io.NewSectionReader(f, offset, math.MaxInt64 - offset))
	if err != nil { return nil, err }
	defer zr.Close()
	res := make([]byte, size)
	_, err = io.ReadFull(zr, res)
	if err != nil { return nil, err }
	return res, nil
}

var ErrMalformedDelta = errors.New("Malformed delta")

// a delta is two uvarints (source size, target size) followed by
// instructions. an instruction with the msb set copies from the base:
// its low 4 bits say which offset bytes follow, the next 3 bits which
// size bytes follow, both little-endian; a size of 0 means 0x10000.
// an instruction with the msb clear inserts the next n bytes verbatim.
func applyDelta(base []byte, delta []byte) ([]byte, error) {
	srcSize, n := binary.Uvarint(delta)
	if n <= 0 { return nil, ErrMalformedDelta }
	delta = delta[n:]
	if srcSize != uint64(len(base)) {
		return nil, fmt.Errorf("%w: base size %d, expected %d", ErrMalformedDelta, len(base), srcSize)
	}
	dstSize, n := binary.Uvarint(delta)
	if n <= 0 { return nil, ErrMalformedDelta }
	if dstSize > store.MAX_OBJECT_SIZE {
		return nil, fmt.Errorf("%w: target size %d too large", ErrMalformedDelta, dstSize)
	}
	delta = delta[n:]
	res := make([]byte, 0, dstSize)
	i := 0
	for i < len(delta) {
		cmd := delta[i]
		i += 1
		if cmd&0x80 != 0 {
			var off, size uint64
			for bit := range 4 {
				if cmd&(1<<bit) == 0 { continue }
				if i >= len(delta) { return nil, ErrMalformedDelta }
				off |= uint64(delta[i]) << (8*bit)
				i += 1
			}
			for bit := range 3 {
				if cmd&(0x10<<bit) == 0 { continue }
				if i >= len(delta) { return nil, ErrMalformedDelta }
				size |= uint64(delta[i]) << (8*bit)
				i += 1
			}
			if size == 0 { size = 0x10000 }
			if off+size > uint64(len(base)) {
				return nil, fmt.Errorf("%w: copy [%d, %d) out of base of size %d", ErrMalformedDelta, off, off+size, len(base))
			}
			res = append(res, base[off:off+size]...)
		} else if cmd != 0 {
			k := int(cmd)
			if i+k > len(delta) { return nil, ErrMalformedDelta }
			res = append(res, delta[i:i+k]...)
			i += k
		} else {
			return nil, fmt.Errorf("%w: reserved instruction 0", ErrMalformedDelta)
		}
	}
	if uint64(len(res)) != dstSize {
		return nil, fmt.Errorf("%w: result size %d, expected %d", ErrMalformedDelta, len(res), dstSize)
	}
	return res, nil
}
