package postgres

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/bctnry/depotview/pkg/depot"
	"github.com/bctnry/depotview/pkg/depot/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresBranchRegistry struct {
	config *depot.DepotConfig
	pool *pgxpool.Pool
}

func NewPostgresBranchRegistry(cfg *depot.DepotConfig) (*PostgresBranchRegistry, error) {
	u := &url.URL{
		Scheme: "postgres",
		User: url.UserPassword(cfg.Refs.UserName, cfg.Refs.Password),
		Host: cfg.Refs.URL,
		Path: cfg.Refs.DatabaseName,
	}
	pool, err := pgxpool.New(context.TODO(), u.String())
	if err != nil { return nil, err }
	return &PostgresBranchRegistry{
		config: cfg,
		pool: pool,
	}, nil
}

func (r *PostgresBranchRegistry) Dispose() error {
	r.pool.Close()
	return nil
}

var requiredTableList = []string{
	"branch",
}

func (r *PostgresBranchRegistry) IsRegistryUsable() (bool, error) {
	ctx := context.Background()
	queryStr := `
SELECT EXISTS (SELECT FROM pg_tables WHERE schemaname = 'public' AND tablename = $1)
`
	for _, item := range requiredTableList {
		tableName := fmt.Sprintf("%s_%s", r.config.Refs.TablePrefix, item)
		stmt := r.pool.QueryRow(ctx, queryStr, tableName)
		var a bool
		err := stmt.Scan(&a)
		if errors.Is(err, pgx.ErrNoRows) { return false, nil }
		if err != nil { return false, err }
		if !a { return false, nil }
	}
	return true, nil
}

// name: VARCHAR(256)
// hash: VARCHAR(64)
func (r *PostgresBranchRegistry) Install() error {
	pfx := r.config.Refs.TablePrefix
	ctx := context.Background()
	tx, err := r.pool.Begin(ctx)
	if err != nil { return err }
	defer tx.Rollback(ctx)
	_, err = tx.Exec(ctx, fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s_branch (
    branch_absid BIGINT GENERATED ALWAYS AS IDENTITY,
    repo_name VARCHAR(256),
    branch_name VARCHAR(256),
    commit_hash VARCHAR(64),
    PRIMARY KEY (repo_name, branch_name)
)`, pfx))
	if err != nil { return err }
	return tx.Commit(ctx)
}

func (r *PostgresBranchRegistry) ListRepositoryBranches(ctx context.Context, repoName string) ([]model.Branch, error) {
	pfx := r.config.Refs.TablePrefix
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
SELECT branch_name, commit_hash FROM %s_branch WHERE repo_name = $1 ORDER BY branch_absid ASC
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

func (r *PostgresBranchRegistry) RegisterBranch(ctx context.Context, repoName string, b model.Branch) error {
	pfx := r.config.Refs.TablePrefix
	_, err := r.pool.Exec(ctx, fmt.Sprintf(`
INSERT INTO %s_branch(repo_name, branch_name, commit_hash) VALUES ($1, $2, $3)
ON CONFLICT (repo_name, branch_name) DO UPDATE SET commit_hash = EXCLUDED.commit_hash
`, pfx), repoName, b.Name, string(b.CommitHash))
	return err
}
