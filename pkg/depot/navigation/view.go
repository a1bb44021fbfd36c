package navigation

import (
	"slices"

	"github.com/bctnry/depotview/pkg/depot/deperr"
	"github.com/bctnry/depotview/pkg/depot/model"
	"github.com/bctnry/depotview/pkg/depot/pathres"
	"github.com/bctnry/depotview/pkg/depot/treecache"
)

type Entry struct {
	Title string `json:"title"`
	IsLeaf bool `json:"isLeaf"`
	Oid model.ObjectId `json:"oid"`
	Mode int `json:"mode"`
}

func entriesOf(l []*treecache.TreeNode) []Entry {
	res := make([]Entry, 0, len(l))
	for _, n := range l {
		res = append(res, Entry{
			Title: n.Title,
			IsLeaf: n.IsLeaf,
			Oid: n.DataRef.Oid,
			Mode: n.Mode,
		})
	}
	return res
}

// what a page showing the current location needs.
type View struct {
	State State `json:"state"`
	Route *pathres.Route `json:"route"`
	Branch *model.Branch `json:"branch"`
	Commit *model.Commit `json:"commit"`
	FellBack bool `json:"fellBack"`
	// listing of the directory, or of the directory holding the file
	// for blob routes.
	Entries []Entry `json:"entries"`
	FileName string `json:"fileName,omitempty"`
	FileContent []byte `json:"fileContent,omitempty"`
	Extension string `json:"extension,omitempty"`
	Language string `json:"language,omitempty"`
	Err error `json:"-"`
	ErrorType string `json:"errorType,omitempty"`
	ErrorMessage string `json:"error,omitempty"`
	Loading bool `json:"loading"`
}

func (v *View) setError(err error) {
	v.Err = err
	if err == nil {
		v.ErrorType = ""
		v.ErrorMessage = ""
		return
	}
	v.ErrorType = deperr.TypeOf(err).String()
	v.ErrorMessage = err.Error()
}

func (v *View) clone() *View {
	res := *v
	res.Entries = slices.Clone(v.Entries)
	if v.Route != nil {
		r := *v.Route
		r.Params = slices.Clone(v.Route.Params)
		res.Route = &r
	}
	if v.Branch != nil {
		b := *v.Branch
		res.Branch = &b
	}
	return &res
}
