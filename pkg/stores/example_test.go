package stores_test

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/openfroyo/scaffolder/pkg/engine"
	"github.com/openfroyo/scaffolder/pkg/progress"
	"github.com/openfroyo/scaffolder/pkg/stores"
)

// ExampleNewSQLiteStore demonstrates creating and initializing a new SQLite store.
func ExampleNewSQLiteStore() {
	store, err := stores.NewSQLiteStore(stores.Config{
		Path: ":memory:", // Use in-memory database for example
	})
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		log.Fatal(err)
	}
	if err := store.Migrate(ctx); err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	fmt.Println("Store initialized successfully")
	// Output: Store initialized successfully
}

// ExampleSQLiteStore_ListEvents demonstrates replaying the events of a run.
func ExampleSQLiteStore_ListEvents() {
	store, _ := stores.NewSQLiteStore(stores.Config{Path: ":memory:"})
	ctx := context.Background()
	_ = store.Init(ctx)
	_ = store.Migrate(ctx)
	defer store.Close()

	req, _, _ := engine.ParseParams(engine.RawParams{ProjectName: "demo"}, engine.DefaultCatalog(), engine.DefaultDefaults())
	_ = store.RunStarted(ctx, "run-001", req, time.Now())
	_ = store.RunEvent(ctx, "run-001", progress.Info("create-folder", "Folder `demo` created"))
	_ = store.RunEvent(ctx, "run-001", progress.Done(progress.StatusSuccess))

	events, err := store.ListEvents(ctx, "run-001")
	if err != nil {
		log.Fatal(err)
	}
	for _, ev := range events {
		fmt.Println(ev.Progress().Text())
	}
	// Output:
	// Folder `demo` created
	// ✔ done
}
