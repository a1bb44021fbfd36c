package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	"github.com/bctnry/depotview/pkg/depot"
	"github.com/bctnry/depotview/pkg/depot/model"
	_ "github.com/mattn/go-sqlite3"
)

// branches are listed in the order they were first registered.
type SqliteBranchRegistry struct {
	config *depot.DepotConfig
	connection *sql.DB
}

var requiredTableList = []string{
	"branch",
}

func NewSqliteBranchRegistry(cfg *depot.DepotConfig) (*SqliteBranchRegistry, error) {
	p := cfg.ProperRefsPath()
	r, _ := url.Parse(p)
	q := r.Query()
	q.Set("cache", "shared")
	q.Set("mode", "rwc")
	q.Set("_journal_mode", "WAL")
	r.RawQuery = q.Encode()
	db, err := sql.Open("sqlite3", "file:" + r.String())
	if err != nil { return nil, err }
	return &SqliteBranchRegistry{
		config: cfg,
		connection: db,
	}, nil
}

func (r *SqliteBranchRegistry) Dispose() error {
	return r.connection.Close()
}

func (r *SqliteBranchRegistry) IsRegistryUsable() (bool, error) {
	pfx := r.config.Refs.TablePrefix
	stmt, err := r.connection.Prepare("SELECT 1 FROM sqlite_schema WHERE type = 'table' AND name = ?")
	if err != nil { return false, err }
	defer stmt.Close()
	for _, item := range requiredTableList {
		row := stmt.QueryRow(fmt.Sprintf("%s_%s", pfx, item))
		var a string
		err := row.Scan(&a)
		if err == sql.ErrNoRows { return false, nil }
		if err != nil { return false, err }
		if len(a) <= 0 { return false, nil }
	}
	return true, nil
}

func (r *SqliteBranchRegistry) Install() error {
	pfx := r.config.Refs.TablePrefix
	tx, err := r.connection.Begin()
	if err != nil { return err }
	defer tx.Rollback()
	_, err = tx.Exec(fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s_branch (
    repo_name TEXT,
    branch_name TEXT,
    commit_hash TEXT,
    PRIMARY KEY (repo_name, branch_name)
)`, pfx))
	if err != nil { return err }
	return tx.Commit()
}

func (r *SqliteBranchRegistry) ListRepositoryBranches(ctx context.Context, repoName string) ([]model.Branch, error) {
	pfx := r.config.Refs.TablePrefix
	rows, err := r.connection.QueryContext(ctx, fmt.Sprintf(`
SELECT branch_name, commit_hash FROM %s_branch WHERE repo_name = ? ORDER BY rowid ASC
`, pfx), repoName)
	if err != nil { return nil, err }
	defer rows.Close()
	res := make([]model.Branch, 0)
	for rows.Next() {
		var name, hash string
		err = rows.Scan(&name, &hash)
		if err != nil { return nil, err }
		res = append(res, model.Branch{Name: name, CommitHash: model.ObjectId(hash)})
	}
	if err = rows.Err(); err != nil { return nil, err }
	return res, nil
}

// re-registering a branch moves it to a new commit but keeps its place
// in the list.
func (r *SqliteBranchRegistry) RegisterBranch(ctx context.Context, repoName string, b model.Branch) error {
	pfx := r.config.Refs.TablePrefix
	_, err := r.connection.ExecContext(ctx, fmt.Sprintf(`
INSERT INTO %s_branch(repo_name, branch_name, commit_hash) VALUES (?,?,?)
ON CONFLICT(repo_name, branch_name) DO UPDATE SET commit_hash = excluded.commit_hash
`, pfx), repoName, b.Name, string(b.CommitHash))
	return err
}
