package in_memory

import (
	"strings"
	"time"

	"github.com/bctnry/depotview/pkg/depot/model"
	"github.com/bctnry/depotview/pkg/gitobj"
)

// builds the trees & blobs for a set of files and returns the id of
// the root tree. keys are slash-separated paths; a key ending with "/"
// makes an empty directory.
func (s *InMemoryStore) AddFiles(files map[string]string) (model.ObjectId, error) {
	entries := make([]model.TreeEntry, 0)
	subdir := make(map[string]map[string]string, 0)
	for p, content := range files {
		p = strings.TrimPrefix(p, "/")
		if len(p) <= 0 { continue }
		head, rest, isDir := strings.Cut(p, "/")
		if isDir {
			if subdir[head] == nil { subdir[head] = make(map[string]string, 0) }
			if len(rest) > 0 { subdir[head][rest] = content }
			continue
		}
		b := gitobj.NewBlob([]byte(content), false)
		s.Add(b)
		entries = append(entries, model.TreeEntry{
			Mode: model.TREE_NORMAL_FILE,
			Name: head,
			Id: b.Id,
		})
	}
	for name, sub := range subdir {
		id, err := s.AddFiles(sub)
		if err != nil { return "", err }
		entries = append(entries, model.TreeEntry{
			Mode: model.TREE_TREE_OBJECT,
			Name: name,
			Id: id,
		})
	}
	t, err := gitobj.NewTree(entries, false)
	if err != nil { return "", err }
	s.Add(t)
	return t.Id, nil
}

var fixtureTime = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func (s *InMemoryStore) AddCommit(tree model.ObjectId, parents []model.ObjectId, message string) (*model.Commit, error) {
	c, err := gitobj.NewCommit(tree, parents, "depotview <depotview@localhost>", fixtureTime, message)
	if err != nil { return nil, err }
	s.Add(c)
	return c, nil
}
