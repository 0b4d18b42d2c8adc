// Package database opens the MySQL connection pool and bootstraps the
// access_sessions schema.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Open connects to MySQL and verifies the connection.
func Open(user, pass, host, port, name string) (*sql.DB, error) {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, host, port, name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

// EnsureSchema creates the access_sessions table and its indexes when they
// do not exist yet. The service runs against a single schema, so this
// replaces a migration tool. Plates are not globally unique: the same
// vehicle produces a new row on every entry, and the open-session plate
// rule is enforced in the service layer.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	const table = `CREATE TABLE IF NOT EXISTS access_sessions (
		id                 BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		tower              VARCHAR(50)  NOT NULL,
		unit               VARCHAR(50)  NULL,
		occupant_name      VARCHAR(255) NOT NULL,
		occupant_id        VARCHAR(50)  NOT NULL,
		role               VARCHAR(10)  NOT NULL,
		plate              VARCHAR(10)  NOT NULL,
		entered_at         DATETIME     NOT NULL,
		exited_at          DATETIME     NULL,
		alert_acknowledged TINYINT(1)   NOT NULL DEFAULT 0,
		created_at         TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at         TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		INDEX idx_tower (tower),
		INDEX idx_plate (plate),
		INDEX idx_exited_at (exited_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`

	if _, err := db.ExecContext(ctx, table); err != nil {
		return fmt.Errorf("create access_sessions: %w", err)
	}
	return nil
}
