package db

import (
	"github.com/jackc/pgx/v5"
	"gorm.io/gorm"
)

// EnsureSchema creates schema if it does not exist.
func EnsureSchema(d *gorm.DB, schema string) error {
	return d.Exec("CREATE SCHEMA IF NOT EXISTS " + pgx.Identifier{schema}.Sanitize()).Error
}
