package loose

import (
	"os"
	"path"
	"strings"

	"github.com/bctnry/depotview/pkg/depot/model"
)

// 1.  if "{gitdir}/commondir" doesn't exist, the common dir is "{gitdir}".
// 2.  else, if its content is an absolute path, that's the common dir.
// 3.  else, the common dir is "{gitdir}/{content}".
func getCommonDir(p string) string {
	s, err := os.ReadFile(path.Join(p, "commondir"))
	if err != nil { return p }
	sstr := strings.TrimSpace(string(s))
	if path.IsAbs(sstr) { return sstr }
	return path.Join(p, sstr)
}

// a directory is a git directory if any one of these holds:
// 1.  "{p}/HEAD" is a valid HEAD reference: either a symlink into
//     "refs/...", a "ref: refs/..." text file, or a bare hash;
// 2.  a "refs" subdirectory exists under the common dir;
// 3.  an "objects" subdirectory exists under the common dir.
func IsValidGitDirectory(p string) bool {
	if isValidHeadReference(path.Join(p, "HEAD")) { return true }
	commondir := getCommonDir(p)
	_, err := os.ReadDir(path.Join(commondir, "refs"))
	if err == nil { return true }
	_, err = os.ReadDir(path.Join(commondir, "objects"))
	if err == nil { return true }
	return false
}

func isValidHeadReference(p string) bool {
	s, err := os.Readlink(p)
	if os.IsNotExist(err) { return false }
	if err == nil { return strings.HasPrefix(s, "refs/") }
	ss, err := os.ReadFile(p)
	if err != nil { return false }
	sstr := strings.TrimSpace(string(ss))
	if strings.HasPrefix(sstr, "ref:") {
		return strings.HasPrefix(strings.TrimSpace(sstr[len("ref:"):]), "refs/")
	}
	return model.IsValidObjectId(sstr)
}

// finds the git directory of a repository checkout or a bare repository.
func FindGitDirectory(p string) (string, bool) {
	if IsValidGitDirectory(p) { return p, true }
	p2 := path.Join(p, ".git")
	if IsValidGitDirectory(p2) { return p2, true }
	return "", false
}
