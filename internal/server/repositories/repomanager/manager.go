// Package repomanager vends repository implementations bound to a DBTX,
// so services can run the same repositories inside or outside a transaction.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/tokenkeeper/internal/dbx"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/repositories/renewaltokens"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RenewalTokens(db dbx.DBTX) renewaltokens.Repository
}
