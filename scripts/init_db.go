package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Creates the environment-prefixed tables. Run with:
//
//	go run scripts/init_db.go
func main() {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "dev"
	}
	prefix := os.Getenv("TABLE_PREFIX")
	if prefix == "" {
		prefix = env + "_"
	}

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = db.Close() }()

	schema := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %[1]sprojects (
			id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
			owner_id text NOT NULL,
			name text NOT NULL,
			description text NOT NULL DEFAULT '',
			color text NOT NULL DEFAULT '',
			created_at timestamptz NOT NULL DEFAULT now(),
			updated_at timestamptz NOT NULL DEFAULT now(),
			deleted_at timestamptz
		);

		CREATE TABLE IF NOT EXISTS %[1]sproject_members (
			project_id uuid NOT NULL REFERENCES %[1]sprojects(id) ON DELETE CASCADE,
			user_id text NOT NULL,
			role text NOT NULL,
			added_at timestamptz NOT NULL DEFAULT now(),
			PRIMARY KEY (project_id, user_id)
		);

		CREATE TABLE IF NOT EXISTS %[1]sdocuments (
			id uuid PRIMARY KEY,
			project_id uuid NOT NULL REFERENCES %[1]sprojects(id) ON DELETE CASCADE,
			name text NOT NULL,
			mime_type text NOT NULL DEFAULT '',
			size_bytes bigint NOT NULL DEFAULT 0,
			storage_path text NOT NULL DEFAULT '',
			url text NOT NULL DEFAULT '',
			created_at timestamptz NOT NULL DEFAULT now(),
			updated_at timestamptz NOT NULL DEFAULT now(),
			extracted_text text,
			extracted_at timestamptz
		);
		CREATE INDEX IF NOT EXISTS %[1]sdocuments_project_idx
			ON %[1]sdocuments (project_id);

		CREATE TABLE IF NOT EXISTS %[1]sconversations (
			id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
			project_id uuid NOT NULL UNIQUE REFERENCES %[1]sprojects(id) ON DELETE CASCADE,
			created_at timestamptz NOT NULL DEFAULT now(),
			updated_at timestamptz NOT NULL DEFAULT now()
		);

		CREATE TABLE IF NOT EXISTS %[1]smessages (
			id uuid PRIMARY KEY,
			conversation_id uuid NOT NULL REFERENCES %[1]sconversations(id) ON DELETE CASCADE,
			role text NOT NULL,
			content text NOT NULL,
			created_at timestamptz NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS %[1]smessages_order_idx
			ON %[1]smessages (conversation_id, created_at, id);
	`, prefix)

	if _, err := db.Exec(schema); err != nil {
		log.Fatalf("Failed to create tables: %v", err)
	}

	fmt.Printf("Tables created (prefix: %s)\n", prefix)
}
