package db

import "strings"

// DatabaseType names a supported SQL dialect / Nomme un dialecte SQL supporté
type DatabaseType string

const (
	SQLite     DatabaseType = "sqlite"
	MySQL      DatabaseType = "mysql"
	PostgreSQL DatabaseType = "postgres"
)

// ParseType normalizes a configured backend name ("postgresql", "sqlite3", ...).
func ParseType(name string) DatabaseType {
	switch n := strings.ToLower(strings.TrimSpace(name)); n {
	case "postgresql":
		return PostgreSQL
	case "sqlite3":
		return SQLite
	default:
		return DatabaseType(n)
	}
}

// String returns string representation
func (dt DatabaseType) String() string {
	return string(dt)
}

