package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mantle-web/mantle/internal/config"
	"github.com/mantle-web/mantle/internal/odm/document"
	"github.com/mantle-web/mantle/internal/odm/store"
	"github.com/mantle-web/mantle/internal/odm/store/memstore"
	"github.com/mantle-web/mantle/internal/odm/store/pgstore"
	"github.com/mantle-web/mantle/internal/odm/store/redistore"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Verify the configured document store",
	Long:  "Connect to the configured store backend and round-trip a probe document through a scratch collection.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		coll, cleanup, err := openProbeCollection(ctx, cfg)
		if err != nil {
			return fmt.Errorf("cannot open %s store: %w", cfg.Store.Backend, err)
		}
		defer cleanup()

		if err := probe(ctx, coll); err != nil {
			color.Red("✗ %s store failed the probe: %v", cfg.Store.Backend, err)
			return err
		}

		color.Green("✓ %s store is reachable and round-trips documents", cfg.Store.Backend)
		return nil
	},
}

func openProbeCollection(ctx context.Context, cfg *config.Config) (store.Collection, func(), error) {
	const collection = "mantle_ping"
	switch cfg.Store.Backend {
	case config.BackendPostgres:
		s, err := pgstore.Open(ctx, config.GetStoreURL(), nil)
		if err != nil {
			return nil, nil, err
		}
		coll, err := s.Collection(ctx, collection)
		if err != nil {
			s.Close()
			return nil, nil, err
		}
		return coll, func() { s.Close() }, nil
	case config.BackendRedis:
		s, err := redistore.Open(redistore.Config{
			Addr:     cfg.Store.Redis.Addr,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
			Prefix:   "mantle:",
		}, nil)
		if err != nil {
			return nil, nil, err
		}
		return s.Collection(collection), func() { s.Close() }, nil
	default:
		return memstore.New().Collection(collection), func() {}, nil
	}
}

// probe writes, reads back, and removes one document.
func probe(ctx context.Context, coll store.Collection) error {
	id := document.NewObjectID()
	doc := document.Doc{
		{Key: "_id", Value: id},
		{Key: "at", Value: time.Now().UTC()},
	}
	if err := coll.Save(ctx, store.Acknowledged, doc); err != nil {
		return err
	}
	if _, err := coll.FindOne(ctx, document.Doc{{Key: "_id", Value: id}}, nil); err != nil {
		return err
	}
	return coll.Remove(ctx, store.Acknowledged, document.Doc{{Key: "_id", Value: id}})
}
