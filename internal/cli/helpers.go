package cli

import (
	"fmt"

	"github.com/priceforge/priceforge/internal/engine"
	"github.com/priceforge/priceforge/internal/store"
)

// withEngine opens the database, wires an engine on top, executes the
// function, and handles cleanup.
func withEngine(fn func(*engine.Engine, store.Store) error) error {
	s, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer s.Close()

	return fn(engine.New(s), s)
}

func formatPercent(rate float64) string {
	if rate == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.2f%%", rate*100)
}

// shortID trims a UUID to its first segment for table display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
