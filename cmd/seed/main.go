package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"
	_ "time/tzdata"

	"fitbook/internal/config"
	"fitbook/internal/database"
	"fitbook/internal/logging"
	"fitbook/internal/seed"
	"fitbook/internal/timezone"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	classesPath := flag.String("classes", "", "YAML file with classes to create instead of the built-in samples")
	reset := flag.Bool("reset", true, "delete existing classes and bookings first")
	flag.Parse()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}
	logger := logging.Component(baseLogger, "seed")

	tz, err := timezone.New(cfg.App.Timezone)
	if err != nil {
		return err
	}

	db, err := database.NewDB(cfg.Database.URL, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	var items []seed.Item
	if *classesPath != "" {
		items, err = seed.LoadFile(*classesPath, tz)
		if err != nil {
			return err
		}
	} else {
		items = seed.Defaults(time.Now(), tz)
	}

	if err := seed.Apply(context.Background(), db, items, *reset, logger); err != nil {
		return err
	}

	logger.Info().Int("count", len(items)).Str("timezone", cfg.App.Timezone).Msg("sample classes created")
	for _, item := range items {
		class := item.Class
		fmt.Printf("- %s by %s on %s (%d booked)\n", class.Name, class.Instructor,
			tz.ToDisplay(class.ScheduledAt).Format("2006-01-02 15:04 MST"), len(item.Bookings))
	}
	return nil
}
