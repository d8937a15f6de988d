package main

import (
	"bytes"
	"context"
	_ "embed"
	"flag"
	"log"

	"quix/internal/config"
	"quix/internal/domain/models"
	"quix/internal/domain/repositories"
	"quix/internal/domain/services"
	"quix/internal/fixture"
	"quix/internal/repository"
	"quix/internal/service/eventsourcing"

	"github.com/joho/godotenv"
)

//go:embed fixtures/demo.yaml
var demoFixture []byte

func main() {
	// Parse command-line flags
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed a workspace")
	clearData := flag.Bool("clear-data", false, "Delete the actor's workspace (keep schema and journal)")
	fixturePath := flag.String("fixture", "", "YAML or JSON action fixture (default: built-in demo)")
	actor := flag.String("actor", "", "Actor to seed as (default: the fixture's actor)")
	flag.Parse()

	// Load .env file
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && (*dropTables || *clearData) {
		log.Fatalf("BLOCKED: Cannot run destructive operations (--drop-tables or --clear-data) in production environment")
	}

	logger, logCloser, err := config.NewLogger(cfg, "seed")
	if err != nil {
		log.Fatalf("Failed to setup logging: %v", err)
	}
	defer logCloser.Close()

	ctx := context.Background()
	backend, err := repository.Open(ctx, cfg, true, logger)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer backend.Close()

	if *dropTables {
		log.Println("Dropping all tables...")
		if err := backend.Reset(ctx); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		log.Println("Tables dropped and recreated")
	}

	if *schemaOnly {
		log.Println("Schema setup complete (schema-only mode)")
		return
	}

	f, err := loadFixture(*fixturePath)
	if err != nil {
		log.Fatalf("Failed to load fixture: %v", err)
	}
	if *actor != "" {
		f.Actor = *actor
	}
	if f.Actor == "" {
		log.Fatalf("No actor: set one in the fixture or pass --actor")
	}

	bus := eventsourcing.NewEventBus(backend.Store, backend.TxManager, eventsourcing.Config{
		MaxBatchSize: cfg.MaxBatchSize,
	}, logger)

	if *clearData {
		n, err := clearWorkspace(ctx, backend.Store, bus, f.Actor)
		if err != nil {
			log.Fatalf("Failed to clear data: %v", err)
		}
		log.Printf("Cleared %d root items of %s", n, f.Actor)
		return
	}

	batches, err := f.ActionBatches()
	if err != nil {
		log.Fatalf("Invalid fixture: %v", err)
	}

	log.Printf("Seeding %d batches as %s (environment: %s, driver: %s)", len(batches), f.Actor, cfg.Environment, cfg.StoreDriver)
	for i, actions := range batches {
		applied, err := bus.Emit(ctx, f.Actor, actions)
		if err != nil {
			log.Fatalf("Batch %d failed: %v", i+1, err)
		}
		log.Printf("Applied batch %d/%d: %d actions (%s)", i+1, len(batches), len(actions), applied.BatchID)
	}

	log.Println("Seeding complete!")
}

func loadFixture(path string) (*fixture.File, error) {
	if path == "" {
		return fixture.Load(bytes.NewReader(demoFixture))
	}
	return fixture.LoadFile(path)
}

// clearWorkspace deletes every root node of actor in one batch; deletes
// cascade to descendants, notebooks and notes.
func clearWorkspace(ctx context.Context, store repositories.WorkspaceStore, bus services.EventBus, actor string) (int, error) {
	roots, err := store.ListChildren(ctx, actor, nil)
	if err != nil {
		return 0, err
	}
	if len(roots) == 0 {
		return 0, nil
	}

	actions := make([]models.Action, 0, len(roots))
	for _, n := range roots {
		a, err := models.NewAction(models.ActionFileDelete, n.ID, nil)
		if err != nil {
			return 0, err
		}
		actions = append(actions, a)
	}

	if _, err := bus.Emit(ctx, actor, actions); err != nil {
		return 0, err
	}
	return len(roots), nil
}
