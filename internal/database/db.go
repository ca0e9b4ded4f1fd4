// Package database opens the MySQL pool and applies the embedded schema.
package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

//go:embed schema.sql
var schema string

// Options are the connection settings taken from config.Config.
type Options struct {
	User, Pass, Host, Port, Name string
}

// DSN builds the driver connection string.  parseTime=true maps DATETIME to
// time.Time and loc=UTC keeps every stored instant in UTC.
func (o Options) DSN() string {
	c := mysql.NewConfig()
	c.User = o.User
	c.Passwd = o.Pass
	c.Net = "tcp"
	c.Addr = o.Host + ":" + o.Port
	c.DBName = o.Name
	c.ParseTime = true
	c.Loc = time.UTC
	c.Params = map[string]string{"charset": "utf8mb4"}
	return c.FormatDSN()
}

// Open connects to MySQL and verifies the connection.
func Open(o Options) (*sql.DB, error) {
	db, err := sql.Open("mysql", o.DSN())
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping mysql %s: %w", o.Host, err)
	}
	return db, nil
}

// Migrate executes every statement of the embedded schema.  Statements use
// CREATE TABLE IF NOT EXISTS so running it on each start is harmless.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range Statements() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}
	return nil
}

// Statements splits the schema on ';' and drops comments and blanks.
func Statements() []string {
	var out []string
	for _, part := range strings.Split(schema, ";") {
		var lines []string
		for _, line := range strings.Split(part, "\n") {
			if t := strings.TrimSpace(line); t != "" && !strings.HasPrefix(t, "--") {
				lines = append(lines, line)
			}
		}
		if len(lines) > 0 {
			out = append(out, strings.TrimSpace(strings.Join(lines, "\n")))
		}
	}
	return out
}
