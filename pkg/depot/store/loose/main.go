package loose

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/bctnry/depotview/pkg/depot/deperr"
	"github.com/bctnry/depotview/pkg/depot/log"
	"github.com/bctnry/depotview/pkg/depot/model"
	"github.com/bctnry/depotview/pkg/depot/store"
	"github.com/bctnry/depotview/pkg/gitobj"
	"gopkg.in/ini.v1"
)

// reads the objects of a local repository, both loose ones
// ("objects/ab/cdef...") and the ones inside "objects/pack".
type LooseStore struct {
	GitDirectoryPath string
	isSHA256 bool
	packMutex sync.Mutex
	packs []*packIndex
	packDirModTime time.Time
	packsLoaded bool
}

func NewLooseStore(p string) (*LooseStore, error) {
	if !IsValidGitDirectory(p) {
		return nil, deperr.NewDepotError(deperr.NOT_FOUND, "Not a git directory: " + p)
	}
	res := &LooseStore{
		GitDirectoryPath: p,
	}
	res.isSHA256 = readIsSHA256(path.Join(p, "config"))
	return res, nil
}

func readIsSHA256(configPath string) bool {
	cfg, err := ini.Load(configPath)
	if err != nil { return false }
	version := cfg.Section("core").Key("repositoryformatversion").String()
	format := cfg.Section("extensions").Key("objectformat").String()
	return version == "1" && strings.ToLower(format) == "sha256"
}

func (s *LooseStore) IsSHA256() bool {
	return s.isSHA256
}

func (s *LooseStore) objectPath(id model.ObjectId) string {
	objStorePath := path.Join(getCommonDir(s.GitDirectoryPath), "objects")
	return path.Join(objStorePath, string(id[:2]), string(id[2:]))
}

func (s *LooseStore) packDirectory() string {
	return path.Join(getCommonDir(s.GitDirectoryPath), "objects", "pack")
}

func (s *LooseStore) hashSize() int {
	if s.isSHA256 { return 32 }
	return 20
}

// the indices are reloaded whenever the pack directory changed since
// the last scan, e.g. after a `git gc`.
func (s *LooseStore) packIndices() ([]*packIndex, error) {
	s.packMutex.Lock()
	defer s.packMutex.Unlock()
	p := s.packDirectory()
	st, err := os.Stat(p)
	if os.IsNotExist(err) { return nil, nil }
	if err != nil { return nil, err }
	if s.packsLoaded && st.ModTime().Equal(s.packDirModTime) { return s.packs, nil }
	entries, err := os.ReadDir(p)
	if err != nil { return nil, err }
	res := make([]*packIndex, 0)
	for _, item := range entries {
		name := item.Name()
		if item.IsDir() || !strings.HasPrefix(name, "pack-") || !strings.HasSuffix(name, ".idx") { continue }
		pi, err := loadPackIndex(path.Join(p, name), s.hashSize())
		if err != nil {
			log.WARN(fmt.Sprintf("Skipping pack index %s: %s", name, err))
			continue
		}
		res = append(res, pi)
	}
	s.packs = res
	s.packDirModTime = st.ModTime()
	s.packsLoaded = true
	return res, nil
}

// returns the kind & payload of an object without interpreting it.
func (s *LooseStore) readRaw(id model.ObjectId, depth int) (model.ObjectKind, []byte, error) {
	f, err := os.Open(s.objectPath(id))
	if err == nil {
		defer f.Close()
		h, payload, err := gitobj.InflateRaw(f)
		if err != nil { return model.INVALID, nil, store.NewTransportError(err, id) }
		return h.Kind, payload, nil
	}
	if !os.IsNotExist(err) { return model.INVALID, nil, store.NewTransportError(err, id) }
	raw, err := hex.DecodeString(string(id))
	if err != nil { return model.INVALID, nil, store.NewNotFoundError(id) }
	packs, err := s.packIndices()
	if err != nil { return model.INVALID, nil, store.NewTransportError(err, id) }
	for _, pi := range packs {
		offset, ok := pi.lookup(raw)
		if !ok { continue }
		kind, payload, err := s.readPacked(pi, offset, depth)
		if err != nil { return model.INVALID, nil, store.NewTransportError(err, id) }
		return kind, payload, nil
	}
	return model.INVALID, nil, store.NewNotFoundError(id)
}

func (s *LooseStore) readPacked(pi *packIndex, offset int64, depth int) (model.ObjectKind, []byte, error) {
	f, err := os.Open(pi.packPath)
	if err != nil { return model.INVALID, nil, err }
	defer f.Close()
	return s.readPackedAt(f, pi, offset, depth)
}

func (s *LooseStore) readPackedAt(f *os.File, pi *packIndex, offset int64, depth int) (model.ObjectKind, []byte, error) {
	if depth > maxDeltaDepth {
		return model.INVALID, nil, fmt.Errorf("Delta chain too long at offset %d of %s", offset, pi.packPath)
	}
	e, err := readPackedEntryHeader(f, offset, pi.hashSize)
	if err != nil { return model.INVALID, nil, err }
	data, err := inflateAt(f, e.dataOffset, e.size)
	if err != nil { return model.INVALID, nil, err }
	switch e.typ {
	case packCommit: return model.COMMIT, data, nil
	case packTree: return model.TREE, data, nil
	case packBlob: return model.BLOB, data, nil
	case packTag: return model.TAG, data, nil
	case packOfsDelta:
		kind, base, err := s.readPackedAt(f, pi, e.baseOffset, depth+1)
		if err != nil { return model.INVALID, nil, err }
		res, err := applyDelta(base, data)
		if err != nil { return model.INVALID, nil, err }
		return kind, res, nil
	case packRefDelta:
		var kind model.ObjectKind
		var base []byte
		if baseOffset, ok := pi.lookup(e.baseId); ok {
			kind, base, err = s.readPackedAt(f, pi, baseOffset, depth+1)
		} else {
			kind, base, err = s.readRaw(model.ObjectId(hex.EncodeToString(e.baseId)), depth+1)
		}
		if err != nil { return model.INVALID, nil, err }
		res, err := applyDelta(base, data)
		if err != nil { return model.INVALID, nil, err }
		return kind, res, nil
	}
	return model.INVALID, nil, fmt.Errorf("Unknown packed object type %d at offset %d of %s", e.typ, offset, pi.packPath)
}

func (s *LooseStore) Fetch(ctx context.Context, id model.ObjectId) (model.Object, error) {
	if err := ctx.Err(); err != nil { return nil, store.NewTransportError(err, id) }
	if !model.IsValidObjectId(string(id)) || id.IsSHA256() != s.isSHA256 {
		return nil, store.NewNotFoundError(id)
	}
	id = model.ObjectId(strings.ToLower(string(id)))
	kind, payload, err := s.readRaw(id, 0)
	if err != nil { return nil, err }
	obj, err := gitobj.DecodePayload(id, kind, payload)
	if err != nil { return nil, store.NewTransportError(err, id) }
	return obj, nil
}

// writes an object the way git does. only used to build fixtures.
func (s *LooseStore) Write(obj model.Object) error {
	b, err := gitobj.EncodeCompressed(obj)
	if err != nil { return err }
	p := s.objectPath(obj.ObjectId())
	if _, err := os.Stat(p); err == nil { return nil }
	err = os.MkdirAll(path.Dir(p), 0755)
	if err != nil { return err }
	return os.WriteFile(p, b, 0444)
}
