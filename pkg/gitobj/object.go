package gitobj

import (
	"bytes"
	"compress/zlib"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"strconv"

	"github.com/bctnry/depotview/pkg/depot/model"
)

// a directly accessible git object is "Deflate(ObjHeader+ObjData)",
// where ObjHeader is "{type} {size}\x00". the ipfs gateway and the
// object caches hand out the same thing without the Deflate().

type Header struct {
	Kind model.ObjectKind
	Size int
}

var ErrMalformedHeader = errors.New("Malformed object header")

func readUntil(f io.Reader, c byte) ([]byte, error) {
	bytebuf := make([]byte, 1)
	res := make([]byte, 0)
	for {
		_, err := io.ReadFull(f, bytebuf)
		if err != nil { return nil, err }
		if bytebuf[0] == c { break }
		res = append(res, bytebuf[0])
	}
	return res, nil
}

func ParseHeader(s io.Reader) (Header, error) {
	typeBytes, err := readUntil(s, byte(' '))
	if err != nil { return Header{}, ErrMalformedHeader }
	sizeBytes, err := readUntil(s, byte(0))
	if err != nil { return Header{}, ErrMalformedHeader }
	size, err := strconv.ParseInt(string(sizeBytes), 10, 64)
	if err != nil { return Header{}, ErrMalformedHeader }
	kind := model.ParseObjectKind(string(typeBytes))
	if kind == model.INVALID {
		return Header{}, fmt.Errorf("Invalid object type in header: %q", string(typeBytes))
	}
	return Header{Kind: kind, Size: int(size)}, nil
}

// decodes an uncompressed object (header included).
func Decode(oid model.ObjectId, raw []byte) (model.Object, error) {
	r := bytes.NewReader(raw)
	h, err := ParseHeader(r)
	if err != nil { return nil, err }
	payload := raw[len(raw)-r.Len():]
	if len(payload) != h.Size {
		return nil, fmt.Errorf("Object %s size mismatch: header says %d, got %d", oid, h.Size, len(payload))
	}
	return DecodePayload(oid, h.Kind, payload)
}

// inflates a loose object and returns its header and payload without
// interpreting the payload. works for every kind, tags included.
func InflateRaw(f io.Reader) (Header, []byte, error) {
	nr, err := zlib.NewReader(f)
	if err != nil { return Header{}, nil, err }
	defer nr.Close()
	h, err := ParseHeader(nr)
	if err != nil { return Header{}, nil, err }
	payload := make([]byte, h.Size)
	_, err = io.ReadFull(nr, payload)
	if err != nil { return Header{}, nil, err }
	return h, payload, nil
}

func DecodeCompressed(oid model.ObjectId, f io.Reader) (model.Object, error) {
	h, payload, err := InflateRaw(f)
	if err != nil { return nil, err }
	return DecodePayload(oid, h.Kind, payload)
}

func DecodePayload(oid model.ObjectId, kind model.ObjectKind, payload []byte) (model.Object, error) {
	switch kind {
	case model.TREE:
		return ParseTree(oid, payload)
	case model.COMMIT:
		return ParseCommit(oid, payload)
	case model.BLOB:
		return &model.BlobContent{Id: oid, Data: payload}, nil
	default:
		return nil, fmt.Errorf("Unsupported object type %s for %s", kind, oid)
	}
}

func Encode(obj model.Object) ([]byte, error) {
	switch obj.Kind() {
	case model.TREE, model.COMMIT, model.BLOB:
	default:
		return nil, errors.New("Invalid type for encoding: " + obj.Kind().String())
	}
	return encodeRaw(obj.Kind(), obj.RawData()), nil
}

func EncodeCompressed(obj model.Object) ([]byte, error) {
	preres, err := Encode(obj)
	if err != nil { return nil, err }
	var res bytes.Buffer
	wr := zlib.NewWriter(&res)
	_, err = wr.Write(preres)
	if err != nil { return nil, err }
	err = wr.Close()
	if err != nil { return nil, err }
	return res.Bytes(), nil
}

func encodeRaw(kind model.ObjectKind, payload []byte) []byte {
	header := fmt.Appendf(nil, "%s %d\x00", kind, len(payload))
	return append(header, payload...)
}

func newHash(useSHA256 bool) hash.Hash {
	if useSHA256 { return sha256.New() }
	return sha1.New()
}

func HashObject(kind model.ObjectKind, payload []byte, useSHA256 bool) model.ObjectId {
	h := newHash(useSHA256)
	h.Write(encodeRaw(kind, payload))
	return model.ObjectId(hex.EncodeToString(h.Sum(nil)))
}

// checks that the object's content actually hashes to its id.
func Verify(obj model.Object) bool {
	oid := obj.ObjectId()
	return HashObject(obj.Kind(), obj.RawData(), oid.IsSHA256()) == oid
}
