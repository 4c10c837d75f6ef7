package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dimitrije/ideaforge-api/internal/config"
	"github.com/dimitrije/ideaforge-api/internal/database"
	"github.com/dimitrije/ideaforge-api/internal/logging"
	"github.com/dimitrije/ideaforge-api/internal/services"
)

// recount-slots rebuilds every role slot's current_positions from the
// member table. Run it after manual data fixes.
func main() {
	if len(os.Args) != 1 {
		fmt.Println("Usage: recount-slots")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(cfg.Env, cfg.LogLevel)

	ctx := context.Background()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()

	fixed, err := services.NewTeamService(db).RecountAll(ctx)
	if err != nil {
		log.WithError(err).Fatal("failed to recount role slots")
	}

	fmt.Printf("Recounted role slots, %d corrected\n", fixed)
}
