// Command seed replaces the catalog with the bundled menu or a YAML file.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ayeshabutt275/MAD-Fall-25/pkg/app"
	"github.com/ayeshabutt275/MAD-Fall-25/pkg/catalog"
)

func main() {
	logger := logrus.New()
	if err := run(os.Args[1:], logger); err != nil {
		logger.WithError(err).Fatal("seeding failed")
	}
}

func run(args []string, logger *logrus.Logger) error {
	set := flag.NewFlagSet("seed", flag.ContinueOnError)
	file := set.String("file", "", "YAML menu to load instead of the bundled one")
	dryRun := set.Bool("dry-run", false, "Validate the menu without writing")
	// The remaining flags go to the shared config parser.
	var rest []string
	set.Func("db-type", "Storage backend: mongo or memory", func(v string) error {
		rest = append(rest, "-db-type", v)
		return nil
	})
	set.Func("db-path", "Snapshot file for the memory backend", func(v string) error {
		rest = append(rest, "-db-path", v)
		return nil
	})
	if err := set.Parse(args); err != nil {
		return err
	}

	items, err := loadMenu(*file)
	if err != nil {
		return err
	}
	logger.WithField("items", len(items)).Info("menu parsed")
	if *dryRun {
		return nil
	}

	cfg, err := app.LoadConfig(rest, nil)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	backend, closeBackend, err := app.OpenBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeBackend()

	stored, err := catalog.NewService(backend, catalog.WithLogger(logger)).Seed(ctx, items)
	if err != nil {
		return err
	}
	for _, item := range stored {
		logger.WithFields(logrus.Fields{
			"id":       item.ID,
			"category": item.Category,
			"price":    item.Price,
		}).Info(item.Name)
	}
	return nil
}

func loadMenu(path string) ([]catalog.FoodItem, error) {
	if path == "" {
		return catalog.DefaultSeed()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open menu: %w", err)
	}
	defer f.Close()
	return catalog.ParseSeed(f)
}
