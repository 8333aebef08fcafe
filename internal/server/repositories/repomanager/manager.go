package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/goblog/internal/dbx"
	"github.com/dmitrijs2005/goblog/internal/server/repositories/categories"
	"github.com/dmitrijs2005/goblog/internal/server/repositories/posts"
	"github.com/dmitrijs2005/goblog/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Posts(db dbx.DBTX) posts.Repository
	Categories(db dbx.DBTX) categories.Repository
}
