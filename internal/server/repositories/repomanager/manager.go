package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/thoughtboard/internal/dbx"
	"github.com/dmitrijs2005/thoughtboard/internal/server/repositories/thoughts"
	"github.com/dmitrijs2005/thoughtboard/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX so callers can run
// them against the pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Thoughts(db dbx.DBTX) thoughts.Repository
}
