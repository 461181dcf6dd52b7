package db

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/XSAM/otelsql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Connect opens a traced postgres handle and runs migrations.
func Connect(ctx context.Context, dsn string) (*sqlx.DB, error) {
	sqlDB, err := otelsql.Open("postgres", dsn, otelsql.WithAttributes(semconv.DBSystemPostgreSQL))
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := otelsql.RegisterDBStatsMetrics(sqlDB, otelsql.WithAttributes(semconv.DBSystemPostgreSQL)); err != nil {
		log.Printf("db stats metrics disabled: %v", err)
	}

	db := sqlx.NewDb(sqlDB, "postgres")
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect db: %w", err)
	}

	if err := runMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return db, nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
            user_id SERIAL PRIMARY KEY,
            first_name TEXT NOT NULL,
            last_name TEXT NOT NULL,
            email TEXT NOT NULL UNIQUE,
            phone TEXT NOT NULL UNIQUE,
            password TEXT NOT NULL,
            profile_pic_url TEXT,
            theme TEXT NOT NULL DEFAULT 'light',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
	`CREATE TABLE IF NOT EXISTS chat_groups (
            group_id SERIAL PRIMARY KEY,
            name TEXT NOT NULL,
            group_image TEXT,
            admin_id INT NOT NULL REFERENCES users(user_id),
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
	`CREATE TABLE IF NOT EXISTS group_memberships (
            group_id INT NOT NULL REFERENCES chat_groups(group_id),
            user_id INT NOT NULL REFERENCES users(user_id),
            joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            PRIMARY KEY(group_id, user_id)
        );`,
	`CREATE INDEX IF NOT EXISTS group_memberships_user_idx ON group_memberships(user_id);`,
	`CREATE TABLE IF NOT EXISTS messages (
            message_id SERIAL PRIMARY KEY,
            group_id INT NOT NULL REFERENCES chat_groups(group_id),
            sender_id INT NOT NULL REFERENCES users(user_id),
            content TEXT NOT NULL,
            message_type TEXT NOT NULL,
            timestamp TIMESTAMPTZ NOT NULL DEFAULT clock_timestamp()
        );`,
	`CREATE INDEX IF NOT EXISTS messages_group_ts_idx ON messages(group_id, timestamp, message_id);`,
	`CREATE TABLE IF NOT EXISTS friendships (
            user_id INT NOT NULL REFERENCES users(user_id),
            friend_id INT NOT NULL REFERENCES users(user_id),
            status TEXT NOT NULL CHECK (status IN ('pending', 'accepted')),
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            PRIMARY KEY(user_id, friend_id)
        );`,
}

func runMigrations(ctx context.Context, db *sqlx.DB) error {
	for _, m := range migrations {
		if _, err := db.ExecContext(ctx, m); err != nil {
			return err
		}
	}
	log.Println("database migrations applied")
	return nil
}
