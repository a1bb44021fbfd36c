package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	"github.com/bctnry/depotview/pkg/depot"
	"github.com/bctnry/depotview/pkg/depot/log"
	"github.com/bctnry/depotview/pkg/depot/model"
	"github.com/bctnry/depotview/pkg/gitobj"
	_ "github.com/mattn/go-sqlite3"
)

type SqliteObjectCache struct {
	config *depot.DepotConfig
	connection *sql.DB
}

var requiredTableList = []string{
	"object",
}

func NewSqliteObjectCache(cfg *depot.DepotConfig) (*SqliteObjectCache, error) {
	p := cfg.ProperObjectCachePath()
	r, _ := url.Parse(p)
	q := r.Query()
	q.Set("cache", "shared")
	q.Set("mode", "rwc")
	q.Set("_journal_mode", "WAL")
	r.RawQuery = q.Encode()
	db, err := sql.Open("sqlite3", "file:" + r.String())
	if err != nil { return nil, err }
	return &SqliteObjectCache{
		config: cfg,
		connection: db,
	}, nil
}

func (c *SqliteObjectCache) Dispose() error {
	return c.connection.Close()
}

func (c *SqliteObjectCache) IsObjectCacheUsable() (bool, error) {
	pfx := c.config.ObjectCache.TablePrefix
	stmt, err := c.connection.Prepare("SELECT 1 FROM sqlite_schema WHERE type = 'table' AND name = ?")
	if err != nil { return false, err }
	defer stmt.Close()
	for _, item := range requiredTableList {
		r := stmt.QueryRow(fmt.Sprintf("%s_%s", pfx, item))
		var a string
		err := r.Scan(&a)
		if err == sql.ErrNoRows { return false, nil }
		if err != nil { return false, err }
		if len(a) <= 0 { return false, nil }
	}
	return true, nil
}

func (c *SqliteObjectCache) Install() error {
	pfx := c.config.ObjectCache.TablePrefix
	tx, err := c.connection.Begin()
	if err != nil { return err }
	defer tx.Rollback()
	_, err = tx.Exec(fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s_object (
    id TEXT PRIMARY KEY,
    kind INT,
    data BLOB
)`, pfx))
	if err != nil { return err }
	return tx.Commit()
}

func (c *SqliteObjectCache) Get(ctx context.Context, id model.ObjectId) (model.Object, bool, error) {
	pfx := c.config.ObjectCache.TablePrefix
	r := c.connection.QueryRowContext(ctx, fmt.Sprintf(`SELECT data FROM %s_object WHERE id = ?`, pfx), string(id))
	var data []byte
	err := r.Scan(&data)
	if err == sql.ErrNoRows { return nil, false, nil }
	if err != nil { return nil, false, err }
	obj, err := gitobj.Decode(id, data)
	if err != nil {
		log.WARN("dropping undecodable cache entry", id, ":", err)
		return nil, false, nil
	}
	return obj, true, nil
}

// the same id always carries the same content, so an existing row is
// left alone.
func (c *SqliteObjectCache) Put(ctx context.Context, obj model.Object) error {
	pfx := c.config.ObjectCache.TablePrefix
	raw, err := gitobj.Encode(obj)
	if err != nil { return err }
	_, err = c.connection.ExecContext(ctx, fmt.Sprintf(`
INSERT OR IGNORE INTO %s_object(id, kind, data) VALUES (?,?,?)
`, pfx), string(obj.ObjectId()), int(obj.Kind()), raw)
	return err
}
