package main

import (
	"chat-hub/internal"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
)

func main() {
	// 1. Load config
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		log.Fatalf("Config error: %v", err)
	}

	// 2. Open Badger in Read-Only mode
	// Note: BypassLockGuard allows opening if another process (the hub) holds the lock
	opts := badger.DefaultOptions(config.BadgerFilepath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	// 3. Start Debug Server Only
	// The hub isn't running here, so the stats block is static
	emptyStats := func() map[string]any {
		return map[string]any{
			"Status": "Viewer Mode (Read-Only)",
			"Time":   time.Now().Format(time.RFC822),
		}
	}

	fmt.Printf("Viewer started at http://localhost:%d/inspect\n", config.DebugPort)

	internal.StartDebugServer(db, config.DebugPort, "/inspect", MessageMapper, emptyStats)
	select {}
}

// MessageMapper enriches the default row with the decoded record content.
func MessageMapper(key string, val []byte) internal.InspectRow {
	row := internal.DefaultMapper(key, val)

	var record struct {
		Sender  string   `json:"sender"`
		Content string   `json:"content"`
		SeenBy  []string `json:"seen_by"`
	}
	if err := json.Unmarshal(val, &record); err != nil {
		return row
	}

	if record.Sender != "" {
		row.Detail = fmt.Sprintf("%s: %s", record.Sender, record.Content)
	}
	if len(record.SeenBy) > 0 {
		row.SeenBy = strings.Join(record.SeenBy, ", ")
	}
	return row
}
