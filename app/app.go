package app

import (
	"database/sql"

	"github.com/go-chi/oauth"

	"form-forge/config"
)

type App struct {
	*sql.DB
	*oauth.BearerServer
	config.Config
}
