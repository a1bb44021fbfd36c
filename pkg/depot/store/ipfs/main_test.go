package ipfs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/bctnry/depotview/pkg/depot"
	"github.com/bctnry/depotview/pkg/depot/deperr"
	"github.com/bctnry/depotview/pkg/depot/model"
	"github.com/bctnry/depotview/pkg/depot/store"
	"github.com/bctnry/depotview/pkg/gitobj"
)

func newGateway(t *testing.T, objects map[string][]byte, hits *atomic.Int64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Method != http.MethodPost || r.URL.Path != "/api/v0/cat" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		raw, ok := objects[r.URL.Query().Get("arg")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write(raw)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newStore(t *testing.T, host string, prefix string) *IPFSStore {
	t.Helper()
	cfg := depot.DefaultConfig()
	cfg.Store.Type = "ipfs"
	cfg.Store.RPCHost = host
	cfg.Store.ObjectPrefix = prefix
	if err := cfg.RecalculateProperPath(); err != nil {
		t.Fatal(err)
	}
	s, err := NewIPFSStore(cfg)
	if err != nil {
		t.Fatalf("NewIPFSStore failed: %v", err)
	}
	return s
}

func TestIPFSStoreFetch(t *testing.T) {
	blob := gitobj.NewBlob([]byte("package main\n"), false)
	raw, _ := gitobj.Encode(blob)
	var hits atomic.Int64
	srv := newGateway(t, map[string][]byte{"repo1/" + string(blob.Id): raw}, &hits)
	s := newStore(t, srv.URL, "repo1/")

	b, err := store.FetchBlob(context.Background(), s, blob.Id)
	if err != nil {
		t.Fatalf("FetchBlob failed: %v", err)
	}
	if string(b.Data) != "package main\n" {
		t.Errorf("unexpected content %q", b.Data)
	}
	if hits.Load() != 1 {
		t.Errorf("expected 1 gateway hit, got %d", hits.Load())
	}
}

func TestIPFSStoreNotFound(t *testing.T) {
	var hits atomic.Int64
	srv := newGateway(t, map[string][]byte{}, &hits)
	s := newStore(t, srv.URL, "")
	_, err := s.Fetch(context.Background(), "ce013625030ba8dba906f756967f9e9ca394464a")
	if !deperr.Is(err, deperr.NOT_FOUND) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestIPFSStoreRejectsForgedContent(t *testing.T) {
	blob := gitobj.NewBlob([]byte("real"), false)
	forged := gitobj.NewBlob([]byte("forged"), false)
	raw, _ := gitobj.Encode(forged)
	var hits atomic.Int64
	srv := newGateway(t, map[string][]byte{string(blob.Id): raw}, &hits)
	s := newStore(t, srv.URL, "")

	_, err := s.Fetch(context.Background(), blob.Id)
	if !deperr.Is(err, deperr.FETCH_FAILURE) {
		t.Errorf("expected FETCH_FAILURE, got %v", err)
	}
}

func TestIPFSStoreServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	s := newStore(t, srv.URL, "")
	_, err := s.Fetch(context.Background(), "ce013625030ba8dba906f756967f9e9ca394464a")
	if !deperr.Is(err, deperr.FETCH_FAILURE) {
		t.Errorf("expected FETCH_FAILURE, got %v", err)
	}
	if !strings.Contains(err.Error(), "500") {
		t.Errorf("expected status in error, got %v", err)
	}
}

func TestNewIPFSStoreRequiresHost(t *testing.T) {
	cfg := depot.DefaultConfig()
	cfg.Store.Type = "ipfs"
	_, err := NewIPFSStore(cfg)
	if !deperr.Is(err, deperr.STORE_NOT_SUPPORTED) {
		t.Errorf("expected STORE_NOT_SUPPORTED, got %v", err)
	}
}

func TestRequestURLEscapesArg(t *testing.T) {
	s := newStore(t, "localhost:5001", "a b/")
	u := s.requestURL(model.ObjectId("ce013625030ba8dba906f756967f9e9ca394464a"))
	if !strings.HasPrefix(u, "http://localhost:5001/api/v0/cat?arg=a+b%2F") {
		t.Errorf("unexpected url %s", u)
	}
}
