package repomanager

import (
	"context"
	"database/sql"

	"github.com/RulzOrg/resumate-sub008/internal/dbx"
	"github.com/RulzOrg/resumate-sub008/internal/server/repositories/evidence"
	"github.com/RulzOrg/resumate-sub008/internal/server/repositories/resumes"
	"github.com/RulzOrg/resumate-sub008/internal/server/repositories/sessions"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Sessions(db dbx.DBTX) sessions.Repository
	Resumes(db dbx.DBTX) resumes.Repository
	Evidence(db dbx.DBTX) evidence.Repository
}
