package gitobj

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/bctnry/depotview/pkg/depot/model"
)

// the binary format of a tree object is a sequence of entries:
// 1.  ascii digits of the mode ("100644", "40000", ...)
// 2.  a space 0x20
// 3.  zero-terminated file name
// 4.  the raw hash of the entry, 20 bytes for sha-1 and 32 for sha-256.

func ParseTree(oid model.ObjectId, payload []byte) (*model.TreeListing, error) {
	hashSize := oid.RawSize()
	if hashSize != 20 && hashSize != 32 { hashSize = 20 }
	submoduleList := make([]model.TreeEntry, 0)
	dirList := make([]model.TreeEntry, 0)
	fileList := make([]model.TreeEntry, 0)
	rest := payload
	for len(rest) > 0 {
		sp := bytes.IndexByte(rest, ' ')
		if sp < 0 { return nil, fmt.Errorf("Malformed tree %s: missing mode", oid) }
		mode, err := strconv.ParseInt(string(rest[:sp]), 10, 64)
		if err != nil { return nil, fmt.Errorf("Malformed tree %s: %w", oid, err) }
		rest = rest[sp+1:]
		nul := bytes.IndexByte(rest, 0)
		if nul < 0 { return nil, fmt.Errorf("Malformed tree %s: unterminated name", oid) }
		name := string(rest[:nul])
		rest = rest[nul+1:]
		if len(rest) < hashSize { return nil, fmt.Errorf("Malformed tree %s: truncated hash", oid) }
		item := model.TreeEntry{
			Mode: model.CanonicalMode(int(mode)),
			Name: name,
			Id: model.ObjectId(hex.EncodeToString(rest[:hashSize])),
		}
		rest = rest[hashSize:]
		switch item.Mode {
		case model.TREE_SUBMODULE:
			submoduleList = append(submoduleList, item)
		case model.TREE_TREE_OBJECT:
			dirList = append(dirList, item)
		default:
			fileList = append(fileList, item)
		}
	}
	return &model.TreeListing{
		Id: oid,
		Entries: slices.Concat(submoduleList, dirList, fileList),
		Raw: payload,
	}, nil
}

// git compares tree entries by name, except that a directory sorts as
// if its name had a trailing slash.
func treeSortKey(e model.TreeEntry) string {
	if e.Mode == model.TREE_TREE_OBJECT { return e.Name + "/" }
	return e.Name
}

func EncodeTreePayload(entries []model.TreeEntry) ([]byte, error) {
	sorted := slices.Clone(entries)
	slices.SortFunc(sorted, func(a, b model.TreeEntry) int {
		return strings.Compare(treeSortKey(a), treeSortKey(b))
	})
	var buf bytes.Buffer
	for _, e := range sorted {
		h, err := hex.DecodeString(string(e.Id))
		if err != nil { return nil, fmt.Errorf("Invalid entry id for %s: %w", e.Name, err) }
		fmt.Fprintf(&buf, "%d %s\x00", e.Mode, e.Name)
		buf.Write(h)
	}
	return buf.Bytes(), nil
}

// builds a tree object out of entries and computes its id.
func NewTree(entries []model.TreeEntry, useSHA256 bool) (*model.TreeListing, error) {
	payload, err := EncodeTreePayload(entries)
	if err != nil { return nil, err }
	oid := HashObject(model.TREE, payload, useSHA256)
	return ParseTree(oid, payload)
}

func NewBlob(data []byte, useSHA256 bool) *model.BlobContent {
	return &model.BlobContent{
		Id: HashObject(model.BLOB, data, useSHA256),
		Data: data,
	}
}
