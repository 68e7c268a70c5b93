package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"

	"bookshelf/internal/book"
	"bookshelf/internal/config"
	"bookshelf/internal/event"
	"bookshelf/internal/platform/logging"
	"bookshelf/internal/store"
)

var (
	titles  = []string{"Dune", "Emma", "Ulysses", "Beloved", "Middlemarch", "Neuromancer", "Solaris", "Kindred"}
	authors = []string{"Frank Herbert", "Jane Austen", "James Joyce", "Toni Morrison", "George Eliot", "William Gibson", "Stanislaw Lem", "Octavia Butler"}
)

func main() {
	var (
		count = flag.Int("count", 20, "Number of books to create")
		reset = flag.Bool("reset", false, "Clear the collection before seeding")
	)
	flag.Parse()

	config.LoadEnvFiles()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()
	bookStore, closeStore, err := store.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer closeStore()

	if *reset {
		if err := bookStore.Save(ctx, nil); err != nil {
			log.Fatalf("Failed to reset store: %v", err)
		}
		log.Println("Collection cleared")
	}

	bus := event.NewBus(logger, event.WithHandlerTimeout(cfg.EventHandlerTimeout))
	event.RegisterLogListeners(bus, logger)

	n, err := seed(ctx, book.NewService(bookStore, bus), *count, rand.New(rand.NewSource(1)))
	if err != nil {
		log.Fatalf("Seeded %d books before failing: %v", n, err)
	}
	log.Printf("Successfully created %d books!", n)
}

// seed creates count books through svc and returns how many were created.
func seed(ctx context.Context, svc *book.Service, count int, rng *rand.Rand) (int, error) {
	for i := 0; i < count; i++ {
		in := book.Input{
			Title:  fmt.Sprintf("%s %d", titles[rng.Intn(len(titles))], i+1),
			Author: authors[rng.Intn(len(authors))],
		}
		if _, err := svc.Create(ctx, in); err != nil {
			return i, err
		}
	}
	return count, nil
}
