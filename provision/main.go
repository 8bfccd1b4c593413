package main

import (
	"context"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		password TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS boards (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS columns (
		id UUID PRIMARY KEY,
		board_id UUID NOT NULL REFERENCES boards(id),
		title TEXT NOT NULL,
		position INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS cards (
		id UUID PRIMARY KEY,
		column_id UUID NOT NULL REFERENCES columns(id),
		title TEXT NOT NULL,
		description TEXT,
		position INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS columns_board_position ON columns (board_id, position)`,
	`CREATE INDEX IF NOT EXISTS cards_column_position ON cards (column_id, position)`,
}

func main() {
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		log.SetLevel(log.DebugLevel)
	}
	log.Info("storage init starting")

	connStr := os.Getenv("DATABASE_URL")
	if connStr == "" {
		log.Fatal("missing DATABASE_URL")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			log.Fatalf("create schema: %v", err)
		}
	}

	if err := seedDemoBoard(ctx, pool); err != nil {
		log.Fatalf("seed: %v", err)
	}

	log.Info("storage init complete")
}

// seedDemoBoard creates one board with the standard three columns when the
// database holds no boards yet.
func seedDemoBoard(ctx context.Context, pool *pgxpool.Pool) error {
	var count int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM boards`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		log.Debug("boards already present, skipping seed")
		return nil
	}

	boardID := uuid.NewString()
	if _, err := pool.Exec(ctx,
		`INSERT INTO boards (id, name) VALUES ($1, $2)`, boardID, "Demo board"); err != nil {
		return err
	}
	for i, title := range []string{"Todo", "In Progress", "Done"} {
		if _, err := pool.Exec(ctx,
			`INSERT INTO columns (id, board_id, title, position) VALUES ($1, $2, $3, $4)`,
			uuid.NewString(), boardID, title, i); err != nil {
			return err
		}
	}
	log.WithField("board_id", boardID).Info("seeded demo board")
	return nil
}
