package loose

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bctnry/depotview/pkg/depot"
	"github.com/bctnry/depotview/pkg/depot/deperr"
	"github.com/bctnry/depotview/pkg/depot/model"
	"github.com/bctnry/depotview/pkg/depot/refs"
	"github.com/bctnry/depotview/pkg/depot/store/loose"
)

// reads branches straight out of the git directories under GitRoot.
// nothing is ever written.
type LooseBranchRegistry struct {
	config *depot.DepotConfig
}

func NewLooseBranchRegistry(cfg *depot.DepotConfig) (*LooseBranchRegistry, error) {
	return &LooseBranchRegistry{config: cfg}, nil
}

func (r *LooseBranchRegistry) IsRegistryUsable() (bool, error) {
	st, err := os.Stat(r.config.ProperGitRoot())
	if os.IsNotExist(err) { return false, nil }
	if err != nil { return false, err }
	return st.IsDir(), nil
}

func (r *LooseBranchRegistry) Install() error { return nil }

func (r *LooseBranchRegistry) Dispose() error { return nil }

func (r *LooseBranchRegistry) RegisterBranch(ctx context.Context, repoName string, b model.Branch) error {
	return deperr.NewDepotError(deperr.STORE_NOT_SUPPORTED, "Loose branch registry is read-only")
}

func (r *LooseBranchRegistry) ListRepositoryBranches(ctx context.Context, repoName string) ([]model.Branch, error) {
	p, ok := loose.FindGitDirectory(path.Join(r.config.ProperGitRoot(), repoName))
	if !ok {
		return nil, deperr.NewDepotError(deperr.NOT_FOUND, fmt.Sprintf("Repository %s not found", repoName))
	}
	return ReadBranches(p)
}

// this function reads the "packed-refs" file, not any of the "pack-xyz" files.
func readPackedRefs(gitDir string) (map[string]model.ObjectId, error) {
	res := make(map[string]model.ObjectId, 0)
	s, err := os.ReadFile(path.Join(gitDir, "packed-refs"))
	if os.IsNotExist(err) { return res, nil }
	if err != nil { return nil, err }
	for item := range strings.SplitSeq(string(s), "\n") {
		if len(item) <= 0 { continue }
		// "#" is the header, "^" is the peeled target of the tag above.
		if strings.HasPrefix(item, "#") || strings.HasPrefix(item, "^") { continue }
		id, name, ok := strings.Cut(item, " ")
		if !ok { continue }
		name = strings.TrimSpace(name)
		if !strings.HasPrefix(name, model.BRANCH_REF_PREFIX) { continue }
		res[model.ClipBranchName(name)] = model.ObjectId(strings.TrimSpace(id))
	}
	return res, nil
}

// "ref: refs/heads/main" -> "main". a detached HEAD has no branch.
func readHeadBranch(gitDir string) string {
	s, err := os.ReadFile(path.Join(gitDir, "HEAD"))
	if err != nil { return "" }
	target, ok := strings.CutPrefix(strings.TrimSpace(string(s)), "ref:")
	if !ok { return "" }
	return model.ClipBranchName(strings.TrimSpace(target))
}

// two places to check:
//     refs/heads/**,  packed-refs
// a loose ref is newer than its packed copy, so it wins.
func ReadBranches(gitDir string) ([]model.Branch, error) {
	all, err := readPackedRefs(gitDir)
	if err != nil { return nil, err }
	headsDir := path.Join(gitDir, "refs", "heads")
	err = filepath.WalkDir(headsDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && p == headsDir { return fs.SkipDir }
			return err
		}
		if d.IsDir() { return nil }
		rel, err := filepath.Rel(headsDir, p)
		if err != nil { return err }
		s, err := os.ReadFile(p)
		if err != nil { return err }
		id := strings.TrimSpace(string(s))
		if !model.IsValidObjectId(id) { return nil }
		all[filepath.ToSlash(rel)] = model.ObjectId(id)
		return nil
	})
	if err != nil { return nil, err }
	res := make([]model.Branch, 0, len(all))
	for name, id := range all {
		res = append(res, model.Branch{Name: name, CommitHash: id})
	}
	return refs.OrderBranches(res, readHeadBranch(gitDir)), nil
}
