package ipfs

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/bctnry/depotview/pkg/depot"
	"github.com/bctnry/depotview/pkg/depot/deperr"
	"github.com/bctnry/depotview/pkg/depot/model"
	"github.com/bctnry/depotview/pkg/depot/store"
	"github.com/bctnry/depotview/pkg/gitobj"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

// fetches objects from an ipfs-style rpc gateway:
//
//   POST {host}/api/v0/cat?arg={prefix}{oid}
//
// the response body is the uncompressed git object, header included.
// the gateway is not trusted: every object is checked against its id.
type IPFSStore struct {
	config *depot.DepotConfig
	client *http.Client
	host string
	limiter *rate.Limiter
}

func NewIPFSStore(cfg *depot.DepotConfig) (*IPFSStore, error) {
	host := cfg.ProperRPCHost()
	if len(host) <= 0 {
		return nil, deperr.NewDepotError(deperr.STORE_NOT_SUPPORTED, "ipfs store requires store.rpcHost")
	}
	timeout := time.Duration(cfg.Store.TimeoutSecond) * time.Second
	limit := rate.Inf
	if cfg.Store.MaxRequestInSecond > 0 {
		limit = rate.Limit(cfg.Store.MaxRequestInSecond)
	}
	return &IPFSStore{
		config: cfg,
		client: &http.Client{Timeout: timeout},
		host: host,
		limiter: rate.NewLimiter(limit, 1),
	}, nil
}

func (s *IPFSStore) requestURL(id model.ObjectId) string {
	q := url.Values{}
	q.Set("arg", s.config.Store.ObjectPrefix + string(id))
	return fmt.Sprintf("%s/api/v0/cat?%s", s.host, q.Encode())
}

func (s *IPFSStore) Fetch(ctx context.Context, id model.ObjectId) (model.Object, error) {
	err := s.limiter.Wait(ctx)
	if err != nil { return nil, store.NewTransportError(err, id) }
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.requestURL(id), nil)
	if err != nil { return nil, store.NewTransportError(err, id) }
	resp, err := s.client.Do(req)
	if err != nil { return nil, store.NewTransportError(err, id) }
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound { return nil, store.NewNotFoundError(id) }
	if resp.StatusCode != http.StatusOK {
		return nil, store.NewTransportError(errors.Errorf("gateway returned %s", resp.Status), id)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, store.MAX_OBJECT_SIZE + 1))
	if err != nil { return nil, store.NewTransportError(err, id) }
	if len(raw) > store.MAX_OBJECT_SIZE {
		return nil, store.NewTransportError(errors.New("object too large"), id)
	}
	obj, err := gitobj.Decode(id, raw)
	if err != nil { return nil, store.NewTransportError(err, id) }
	if !gitobj.Verify(obj) {
		return nil, store.NewTransportError(errors.New("content does not match object id"), id)
	}
	return obj, nil
}
