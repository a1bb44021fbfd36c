package loose

import (
	"bytes"
	"compress/zlib"
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"os"
	"path"
	"sort"
	"testing"

	"github.com/bctnry/depotview/pkg/depot/deperr"
	"github.com/bctnry/depotview/pkg/depot/model"
	"github.com/bctnry/depotview/pkg/depot/store"
	"github.com/bctnry/depotview/pkg/gitobj"
)

type testPackObject struct {
	id model.ObjectId
	typ int
	// inflated body: the object payload, or the delta for delta types.
	body []byte
	// index of an earlier object in the same pack. OFS_DELTA only.
	ofsBase int
	// REF_DELTA only.
	refBase model.ObjectId
}

func encodePackedHeader(typ int, size int) []byte {
	b := byte(typ<<4) | byte(size&0xf)
	size >>= 4
	res := make([]byte, 0)
	for size > 0 {
		res = append(res, b|0x80)
		b = byte(size & 0x7f)
		size >>= 7
	}
	return append(res, b)
}

func encodeOfsOffset(ofs int64) []byte {
	buf := []byte{byte(ofs & 0x7f)}
	for ofs >>= 7; ofs > 0; ofs >>= 7 {
		ofs -= 1
		buf = append([]byte{byte(0x80 | (ofs & 0x7f))}, buf...)
	}
	return buf
}

func deflate(t *testing.T, b []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(b); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func rawId(t *testing.T, id model.ObjectId) []byte {
	t.Helper()
	b, err := hex.DecodeString(string(id))
	if err != nil {
		t.Fatal(err)
	}
	return b
}

// writes pack-test.pack & pack-test.idx into the pack directory of
// gitDir. checksums are left zeroed; the reader never checks them.
func writePack(t *testing.T, gitDir string, objs []testPackObject, indexVersion int) {
	t.Helper()
	var pack bytes.Buffer
	pack.WriteString("PACK")
	binary.Write(&pack, binary.BigEndian, uint32(2))
	binary.Write(&pack, binary.BigEndian, uint32(len(objs)))
	offsets := make([]int64, len(objs))
	for i, o := range objs {
		offsets[i] = int64(pack.Len())
		pack.Write(encodePackedHeader(o.typ, len(o.body)))
		switch o.typ {
		case packOfsDelta:
			pack.Write(encodeOfsOffset(offsets[i] - offsets[o.ofsBase]))
		case packRefDelta:
			pack.Write(rawId(t, o.refBase))
		}
		pack.Write(deflate(t, o.body))
	}
	pack.Write(make([]byte, 20))

	order := make([]int, len(objs))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return objs[order[a]].id < objs[order[b]].id })
	var fanout [256]uint32
	for _, i := range order {
		first := rawId(t, objs[i].id)[0]
		for k := int(first); k < 256; k++ {
			fanout[k] += 1
		}
	}

	var idx bytes.Buffer
	if indexVersion == 2 {
		binary.Write(&idx, binary.BigEndian, uint32(packIndexV2Magic))
		binary.Write(&idx, binary.BigEndian, uint32(2))
	}
	binary.Write(&idx, binary.BigEndian, fanout)
	if indexVersion == 2 {
		for _, i := range order {
			idx.Write(rawId(t, objs[i].id))
		}
		idx.Write(make([]byte, 4*len(objs)))
		for _, i := range order {
			binary.Write(&idx, binary.BigEndian, uint32(offsets[i]))
		}
	} else {
		for _, i := range order {
			binary.Write(&idx, binary.BigEndian, uint32(offsets[i]))
			idx.Write(rawId(t, objs[i].id))
		}
	}
	idx.Write(make([]byte, 40))

	dir := path.Join(gitDir, "objects", "pack")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path.Join(dir, "pack-test.pack"), pack.Bytes(), 0444); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path.Join(dir, "pack-test.idx"), idx.Bytes(), 0444); err != nil {
		t.Fatal(err)
	}
}

// "hello world\n" -> "hello there\n": copy 6 bytes from offset 0, then
// insert "there\n".
var helloDelta = []byte{12, 12, 0x90, 6, 6, 't', 'h', 'e', 'r', 'e', '\n'}

func TestEncodeOfsOffsetRoundTrip(t *testing.T) {
	for _, ofs := range []int64{1, 127, 128, 300, 16511, 1 << 20} {
		// the entry sits at ofs and refers back to offset 0.
		buf := make([]byte, ofs)
		buf = append(buf, encodePackedHeader(packOfsDelta, 0)...)
		buf = append(buf, encodeOfsOffset(ofs)...)
		e, err := readPackedEntryHeader(bytes.NewReader(buf), ofs, 20)
		if err != nil {
			t.Fatalf("offset %d: %v", ofs, err)
		}
		if e.baseOffset != 0 {
			t.Errorf("offset %d decoded to base %d", ofs, e.baseOffset)
		}
	}
}

func TestPackedObjects(t *testing.T) {
	for _, version := range []int{1, 2} {
		t.Run(map[int]string{1: "v1", 2: "v2"}[version], func(t *testing.T) {
			dir := makeGitDir(t, "")
			base := gitobj.NewBlob([]byte("hello world\n"), false)
			target := gitobj.NewBlob([]byte("hello there\n"), false)
			tree, err := gitobj.NewTree([]model.TreeEntry{{Mode: model.TREE_NORMAL_FILE, Name: "a.txt", Id: target.Id}}, false)
			if err != nil {
				t.Fatal(err)
			}
			writePack(t, dir, []testPackObject{
				{id: base.Id, typ: packBlob, body: base.Data},
				{id: tree.Id, typ: packTree, body: tree.Raw},
				{id: target.Id, typ: packOfsDelta, body: helloDelta, ofsBase: 0},
			}, version)
			s, err := NewLooseStore(dir)
			if err != nil {
				t.Fatal(err)
			}

			obj, err := s.Fetch(context.Background(), target.Id)
			if err != nil {
				t.Fatalf("Fetch delta failed: %v", err)
			}
			if string(obj.RawData()) != "hello there\n" || !gitobj.Verify(obj) {
				t.Errorf("unexpected delta result %q", obj.RawData())
			}
			obj, err = s.Fetch(context.Background(), tree.Id)
			if err != nil {
				t.Fatalf("Fetch tree failed: %v", err)
			}
			if obj.Kind() != model.TREE {
				t.Errorf("expected tree, got %s", obj.Kind())
			}
			_, err = s.Fetch(context.Background(), gitobj.NewBlob([]byte("absent"), false).Id)
			if !deperr.Is(err, deperr.NOT_FOUND) {
				t.Errorf("expected NOT_FOUND, got %v", err)
			}
		})
	}
}

func TestRefDeltaAgainstLooseBase(t *testing.T) {
	dir := makeGitDir(t, "")
	s, err := NewLooseStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	base := gitobj.NewBlob([]byte("hello world\n"), false)
	target := gitobj.NewBlob([]byte("hello there\n"), false)

	// the store has already looked at the (missing) pack directory once.
	if _, err := s.Fetch(context.Background(), target.Id); !deperr.Is(err, deperr.NOT_FOUND) {
		t.Fatalf("expected NOT_FOUND before packing, got %v", err)
	}

	if err := s.Write(base); err != nil {
		t.Fatal(err)
	}
	writePack(t, dir, []testPackObject{
		{id: target.Id, typ: packRefDelta, body: helloDelta, refBase: base.Id},
	}, 2)
	obj, err := s.Fetch(context.Background(), target.Id)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if string(obj.RawData()) != "hello there\n" {
		t.Errorf("unexpected content %q", obj.RawData())
	}
}

func TestApplyDeltaRejectsMalformed(t *testing.T) {
	base := []byte("hello world\n")
	tests := []struct {
		name string
		delta []byte
	}{
		{"source size mismatch", []byte{5, 1, 1, 'x'}},
		{"copy out of range", []byte{12, 20, 0x91, 8, 20}},
		{"reserved instruction", []byte{12, 1, 0}},
		{"truncated insert", []byte{12, 4, 4, 'a'}},
		{"target size mismatch", []byte{12, 3, 1, 'x'}},
		{"empty", []byte{}},
		{"target size too large", []byte{12, 0xff, 0xff, 0xff, 0xff, 0x0f, 1, 'x'}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := applyDelta(base, tt.delta)
			if !errors.Is(err, ErrMalformedDelta) {
				t.Errorf("expected ErrMalformedDelta, got %v", err)
			}
		})
	}
}

func TestPackedEntryHeaderRejectsBadSize(t *testing.T) {
	overflow := []byte{0x90 | 0x0f}
	for range 9 {
		overflow = append(overflow, 0xff)
	}
	overflow = append(overflow, 0x01)
	tests := []struct {
		name string
		header []byte
	}{
		{"too large", encodePackedHeader(packBlob, 1<<30)},
		{"just over the limit", encodePackedHeader(packBlob, store.MAX_OBJECT_SIZE+1)},
		{"overflowing size", overflow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := readPackedEntryHeader(bytes.NewReader(tt.header), 0, 20); err == nil {
				t.Errorf("expected header %x to be rejected", tt.header)
			}
		})
	}
	e, err := readPackedEntryHeader(bytes.NewReader(encodePackedHeader(packBlob, store.MAX_OBJECT_SIZE)), 0, 20)
	if err != nil {
		t.Fatalf("header at the limit rejected: %v", err)
	}
	if e.size != store.MAX_OBJECT_SIZE {
		t.Errorf("expected size %d, got %d", store.MAX_OBJECT_SIZE, e.size)
	}
}

func TestOversizedPackedObjectIsNotRead(t *testing.T) {
	dir := makeGitDir(t, "")
	blob := gitobj.NewBlob([]byte("small"), false)
	writePack(t, dir, []testPackObject{
		{id: blob.Id, typ: packBlob, body: blob.Data},
	}, 2)
	// claim a huge size in the header while keeping the small body.
	p := path.Join(dir, "objects", "pack", "pack-test.pack")
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	forged := append([]byte{}, b[:12]...)
	forged = append(forged, encodePackedHeader(packBlob, 1<<40)...)
	forged = append(forged, b[12+len(encodePackedHeader(packBlob, len(blob.Data))):]...)
	if err := os.Chmod(p, 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, forged, 0644); err != nil {
		t.Fatal(err)
	}
	s, err := NewLooseStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Fetch(context.Background(), blob.Id); err == nil {
		t.Errorf("expected an error for an oversized packed object")
	}
}

func TestLoadPackIndexRejectsTruncated(t *testing.T) {
	p := path.Join(t.TempDir(), "pack-x.idx")
	if err := os.WriteFile(p, []byte{0xff, 0x74, 0x4f, 0x63, 0, 0, 0, 2, 0, 0}, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadPackIndex(p, 20); !errors.Is(err, ErrMalformedPackIndex) {
		t.Errorf("expected ErrMalformedPackIndex, got %v", err)
	}
}
