package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// content hash of an object, in lowercase hex. 40 characters for
// sha-1 repositories and 64 for sha-256 ones.
type ObjectId string

var ErrInvalidObjectId = errors.New("Invalid object id")

func (oid ObjectId) String() string { return string(oid) }
func (oid ObjectId) IsSHA256() bool { return len(oid) == 64 }

// size of the hash in bytes, i.e. how it's stored inside tree objects.
func (oid ObjectId) RawSize() int { return len(oid) / 2 }

func IsValidObjectId(s string) bool {
	if len(s) != 40 && len(s) != 64 { return false }
	for _, i := range s {
		if !(('0' <= i && i <= '9') ||
			('a' <= i && i <= 'f') ||
			('A' <= i && i <= 'F')) { return false }
	}
	return true
}

func ParseObjectId(s string) (ObjectId, error) {
	ss := strings.ToLower(strings.TrimSpace(s))
	if !IsValidObjectId(ss) {
		return "", fmt.Errorf("%w: %q", ErrInvalidObjectId, s)
	}
	return ObjectId(ss), nil
}

type ObjectKind int
const (
	INVALID ObjectKind = 0
	COMMIT ObjectKind = 1
	TREE ObjectKind = 2
	BLOB ObjectKind = 3
	TAG ObjectKind = 4
)

// the names here are the ones git writes into object headers.
func (k ObjectKind) String() string {
	switch k {
	case COMMIT: return "commit"
	case TREE: return "tree"
	case BLOB: return "blob"
	case TAG: return "tag"
	default: return "invalid"
	}
}

func ParseObjectKind(s string) ObjectKind {
	switch s {
	case "commit": return COMMIT
	case "tree": return TREE
	case "blob": return BLOB
	case "tag": return TAG
	default: return INVALID
	}
}

type Object interface {
	Kind() ObjectKind
	ObjectId() ObjectId
	RawData() []byte
}

// possible valid mode numbers of a tree entry. these are octal
// digits read as decimal, the same way git writes them:
// 100644  -  normal file.
// 100755  -  executable file.
// 120000  -  symbolic link.
// 040000  -  tree objects.
// 160000  -  submodules.
// any non-file non-link non-tree mode is considered a submodule.
const (
	TREE_NORMAL_FILE = 100644
	TREE_EXECUTABLE_FILE = 100755
	TREE_SYMBOLIC_LINK = 120000
	TREE_TREE_OBJECT = 40000
	TREE_SUBMODULE = 160000
)

func CanonicalMode(m int) int {
	switch m {
	case TREE_NORMAL_FILE: return TREE_NORMAL_FILE
	case TREE_EXECUTABLE_FILE: return TREE_EXECUTABLE_FILE
	case TREE_SYMBOLIC_LINK: return TREE_SYMBOLIC_LINK
	case TREE_TREE_OBJECT: return TREE_TREE_OBJECT
	default: return TREE_SUBMODULE
	}
}

type TreeEntry struct {
	Mode int `json:"mode"`
	Name string `json:"name"`
	Id ObjectId `json:"oid"`
}

// submodules count as leaves: the commit they point to lives in
// another repository and can't be expanded here.
func (e TreeEntry) IsLeaf() bool { return e.Mode != TREE_TREE_OBJECT }

func (e TreeEntry) String() string {
	return fmt.Sprintf("<<[%d]%s,%s>>", e.Mode, e.Name, e.Id)
}

type TreeListing struct {
	Id ObjectId
	Entries []TreeEntry
	Raw []byte
}

func (t *TreeListing) Kind() ObjectKind { return TREE }
func (t *TreeListing) ObjectId() ObjectId { return t.Id }
func (t *TreeListing) RawData() []byte { return t.Raw }

func (t *TreeListing) String() string {
	return fmt.Sprintf("Tree{%s,%s}", t.Id, t.Entries)
}

type BlobContent struct {
	Id ObjectId
	Data []byte
}

func (b *BlobContent) Kind() ObjectKind { return BLOB }
func (b *BlobContent) ObjectId() ObjectId { return b.Id }
func (b *BlobContent) RawData() []byte { return b.Data }

func (b *BlobContent) String() string {
	return fmt.Sprintf("Blob{%s,%d}", b.Id, len(b.Data))
}

type Commit struct {
	Hash ObjectId `json:"commit_hash"`
	TreeOid ObjectId `json:"tree_oid"`
	Parents []ObjectId `json:"parents"`
	Message string `json:"message"`
	Author string `json:"author"`
	Timestamp time.Time `json:"timestamp"`
	Raw []byte `json:"-"`
}

func (c *Commit) Kind() ObjectKind { return COMMIT }
func (c *Commit) ObjectId() ObjectId { return c.Hash }
func (c *Commit) RawData() []byte { return c.Raw }

func (c *Commit) String() string {
	return fmt.Sprintf("Commit{%s,%s,%s}", c.Hash, c.Parents, c.TreeOid)
}
