package store

import (
	"context"
	"fmt"

	"github.com/bctnry/depotview/pkg/depot/deperr"
	"github.com/bctnry/depotview/pkg/depot/model"
	"github.com/pkg/errors"
)

// largest object any backend will hand out.
const MAX_OBJECT_SIZE = 64 * 1024 * 1024

// the only thing the tree cache and the commit resolver know about the
// storage backend.
type ObjectFetcher interface {
	Fetch(ctx context.Context, id model.ObjectId) (model.Object, error)
}

type FetcherFunc func(ctx context.Context, id model.ObjectId) (model.Object, error)

func (f FetcherFunc) Fetch(ctx context.Context, id model.ObjectId) (model.Object, error) {
	return f(ctx, id)
}

func NewNotFoundError(id model.ObjectId) error {
	return deperr.NewDepotError(deperr.NOT_FOUND, fmt.Sprintf("Object %s not found", id))
}

func NewTransportError(err error, id model.ObjectId) error {
	return deperr.WrapDepotError(
		deperr.FETCH_FAILURE,
		errors.Wrapf(err, "fetch %s", id),
		"Object fetch failed",
	)
}

func newTypeMismatchError(id model.ObjectId, expected model.ObjectKind, actual model.ObjectKind) error {
	return deperr.NewDepotError(deperr.TYPE_MISMATCH, fmt.Sprintf(
		"Object type mismatch for %s: %s expected but %s found",
		id, expected, actual,
	))
}

func FetchTree(ctx context.Context, f ObjectFetcher, id model.ObjectId) (*model.TreeListing, error) {
	obj, err := f.Fetch(ctx, id)
	if err != nil { return nil, err }
	t, ok := obj.(*model.TreeListing)
	if !ok { return nil, newTypeMismatchError(id, model.TREE, obj.Kind()) }
	return t, nil
}

func FetchBlob(ctx context.Context, f ObjectFetcher, id model.ObjectId) (*model.BlobContent, error) {
	obj, err := f.Fetch(ctx, id)
	if err != nil { return nil, err }
	b, ok := obj.(*model.BlobContent)
	if !ok { return nil, newTypeMismatchError(id, model.BLOB, obj.Kind()) }
	return b, nil
}

func FetchCommit(ctx context.Context, f ObjectFetcher, id model.ObjectId) (*model.Commit, error) {
	obj, err := f.Fetch(ctx, id)
	if err != nil { return nil, err }
	c, ok := obj.(*model.Commit)
	if !ok { return nil, newTypeMismatchError(id, model.COMMIT, obj.Kind()) }
	return c, nil
}
