package treecache

import (
	"github.com/bctnry/depotview/pkg/depot/model"
)

type DataRef struct {
	Oid model.ObjectId `json:"oid"`
}

type TreeNode struct {
	Title string `json:"title"`
	// true for blobs, symlinks and submodules.
	IsLeaf bool `json:"isLeaf"`
	DataRef DataRef `json:"dataRef"`
	Mode int `json:"mode"`
	// only meaningful when loaded. an empty directory is loaded with
	// zero children.
	Children []*TreeNode `json:"-"`
	loaded bool
}

func (n *TreeNode) Loaded() bool {
	return n.loaded
}

func newNode(e model.TreeEntry) *TreeNode {
	return &TreeNode{
		Title: e.Name,
		IsLeaf: e.IsLeaf(),
		DataRef: DataRef{Oid: e.Id},
		Mode: e.Mode,
	}
}

func NewNodeList(t *model.TreeListing) []*TreeNode {
	res := make([]*TreeNode, 0, len(t.Entries))
	for _, e := range t.Entries {
		res = append(res, newNode(e))
	}
	return res
}

func Find(children []*TreeNode, title string) *TreeNode {
	for _, k := range children {
		if k.Title == title { return k }
	}
	return nil
}
