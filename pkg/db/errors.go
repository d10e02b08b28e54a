package db

import "errors"

var (
	ErrFailedToParseConfig = errors.New("db: failed to parse connection config")
	ErrConnectionFailed    = errors.New("db: connection failed")
	ErrHealthcheckFailed   = errors.New("db: healthcheck failed")
	ErrSetDialect          = errors.New("db migrator: failed to set dialect")
	ErrApplyMigrations     = errors.New("db migrator: failed to apply migrations")
)
