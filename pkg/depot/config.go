package depot

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"strings"
)

type DepotConfig struct {
	FilePath string `json:"-"`
	// the version of the configuration file. currently only 0 is
	// allowed.
	Version int `json:"version"`
	// the root directory where all the `.git` directories reside.
	// only used when the store type is "loose" and when the branch
	// registry type is "loose".
	GitRoot string `json:"root"`
	// names of the repositories served when the store is not "loose"
	// (with a loose store the repositories are found by scanning
	// GitRoot).
	Repositories []string `json:"repositories"`
	properGitRoot string
	// repositories under GitRoot to skip during scanning.
	IgnoreRepository []string `json:"ignoreRepository"`

	BindAddress string `json:"bindAddress"`
	BindPort int `json:"bindPort"`

	Store DepotStoreConfig `json:"store"`
	ObjectCache DepotObjectCacheConfig `json:"objectCache"`
	Refs DepotRefsConfig `json:"refs"`

	// when true, a branch name that matches nothing is an error
	// instead of silently falling back to the first branch.
	StrictBranchMatch bool `json:"strictBranchMatch"`
	// how long an idle navigation session is kept around.
	SessionTimeoutMinute int `json:"sessionTimeoutMinute"`
	// per-ip request limit of the http server.
	MaxRequestInSecond float64 `json:"maxRequestInSecond"`
}

type DepotStoreConfig struct {
	// store type:
	// + "loose": read loose git objects from the repositories under GitRoot.
	// + "ipfs": fetch objects from an ipfs-style rpc gateway.
	// + "memory": an empty in-memory store. only useful for testing.
	Type string `json:"type"`
	// "host:port" or a full url of the rpc gateway. "ipfs" only.
	RPCHost string `json:"rpcHost"`
	// prepended to the object id when asking the gateway for an object.
	ObjectPrefix string `json:"objectPrefix"`
	TimeoutSecond int `json:"timeoutSecond"`
	// upper bound of gateway requests per second. 0 means unlimited.
	MaxRequestInSecond float64 `json:"maxRequestInSecond"`
	properRPCHost string
}

type DepotObjectCacheConfig struct {
	// cache type. supports:
	// + "" or "none": no cache.
	// + "memory"
	// + redis-like dbs: "redis", "keydb", "valkey"
	// + "memcached"
	// + "sqlite"
	// objects are content-addressed, so nothing here ever needs to be
	// invalidated.
	Type string `json:"type"`
	// sqlite only.
	Path string `json:"path"`
	properPath string
	// used as table prefix for "sqlite" and key prefix for the rest.
	TablePrefix string `json:"tablePrefix"`
	// "host:port". redis-like & memcached only.
	Host string `json:"host"`
	UserName string `json:"userName"`
	Password string `json:"password"`
	DatabaseNumber int `json:"databaseNumber"`
	// 0 means never expire.
	ExpirationSecond int `json:"expirationSecond"`
}

type DepotRefsConfig struct {
	// branch registry type:
	// + "loose": refs/heads & packed-refs of the repositories under GitRoot.
	// + "sqlite"
	// + "postgres"
	Type string `json:"type"`
	// sqlite only.
	Path string `json:"path"`
	properPath string
	// postgres only.
	URL string `json:"url"`
	UserName string `json:"userName"`
	Password string `json:"password"`
	DatabaseName string `json:"databaseName"`
	TablePrefix string `json:"tablePrefix"`
}

func (cfg *DepotConfig) ProperObjectCachePath() string {
	return cfg.ObjectCache.properPath
}

func (cfg *DepotConfig) ProperRefsPath() string {
	return cfg.Refs.properPath
}

func (cfg *DepotConfig) ProperGitRoot() string {
	return cfg.properGitRoot
}

func (cfg *DepotConfig) ProperRPCHost() string {
	return cfg.Store.properRPCHost
}

func (cfg *DepotConfig) BindAddressFull() string {
	return fmt.Sprintf("%s:%d", cfg.BindAddress, cfg.BindPort)
}

func DefaultConfig() *DepotConfig {
	return &DepotConfig{
		Version: 0,
		GitRoot: "",
		Repositories: nil,
		IgnoreRepository: nil,
		BindAddress: "127.0.0.1",
		BindPort: 8000,
		Store: DepotStoreConfig{
			Type: "loose",
			RPCHost: "",
			ObjectPrefix: "",
			TimeoutSecond: 30,
			MaxRequestInSecond: 0,
		},
		ObjectCache: DepotObjectCacheConfig{
			Type: "none",
			TablePrefix: "depotview",
		},
		Refs: DepotRefsConfig{
			Type: "loose",
			TablePrefix: "depotview",
		},
		StrictBranchMatch: false,
		SessionTimeoutMinute: 30,
		MaxRequestInSecond: 20,
	}
}

func CreateConfigFile(p string) error {
	f, err := os.OpenFile(
		p,
		os.O_CREATE|os.O_EXCL|os.O_WRONLY|os.O_TRUNC,
		0644,
	)
	if err != nil { return err }
	defer f.Close()
	marshalRes, err := json.MarshalIndent(DefaultConfig(), "", "    ")
	if err != nil { return err }
	_, err = f.Write(marshalRes)
	return err
}

func resolveAgainst(dir string, p string) string {
	if path.IsAbs(p) { return p }
	return path.Join(dir, p)
}

func (c *DepotConfig) RecalculateProperPath() error {
	if c.Version != 0 {
		return fmt.Errorf("Unsupported config version %d", c.Version)
	}
	c.Store.properRPCHost = strings.TrimSpace(c.Store.RPCHost)
	if c.Store.properRPCHost != "" {
		if !strings.HasPrefix(c.Store.properRPCHost, "http://") && !strings.HasPrefix(c.Store.properRPCHost, "https://") {
			c.Store.properRPCHost = "http://" + c.Store.properRPCHost
		}
		c.Store.properRPCHost = strings.TrimSuffix(c.Store.properRPCHost, "/")
	}
	configDir := path.Dir(c.FilePath)
	if c.ObjectCache.Type == "sqlite" {
		c.ObjectCache.properPath = resolveAgainst(configDir, c.ObjectCache.Path)
	}
	if c.Refs.Type == "sqlite" {
		c.Refs.properPath = resolveAgainst(configDir, c.Refs.Path)
	}
	c.properGitRoot = ""
	if len(c.GitRoot) > 0 {
		c.properGitRoot = resolveAgainst(configDir, c.GitRoot)
	}
	if c.SessionTimeoutMinute <= 0 { c.SessionTimeoutMinute = 30 }
	return nil
}

func LoadConfigFile(p string) (*DepotConfig, error) {
	s, err := os.ReadFile(p)
	if err != nil { return nil, err }
	c := DefaultConfig()
	err = json.Unmarshal(s, c)
	if err != nil { return nil, err }
	c.FilePath = p
	err = c.RecalculateProperPath()
	if err != nil { return nil, err }
	return c, nil
}

func (cfg *DepotConfig) Sync() error {
	p := cfg.FilePath
	s, err := json.MarshalIndent(cfg, "", "    ")
	if err != nil { return err }
	st, err := os.Stat(p)
	if err != nil && !os.IsNotExist(err) { return err }
	var f *os.File
	if os.IsNotExist(err) {
		f, err = os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	} else {
		f, err = os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, st.Mode())
	}
	if err != nil { return err }
	defer f.Close()
	_, err = f.Write(s)
	if err != nil { return err }
	return f.Sync()
}
