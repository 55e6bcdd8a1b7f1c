package main

import (
	"context"
	"fmt"

	"github.com/spf13/viper"

	"github.com/Sjoeborg/krona/internal/config"
	"github.com/Sjoeborg/krona/internal/service"
	"github.com/Sjoeborg/krona/internal/storage"
)

// initTransactionStore opens the SQLite archive and runs migrations.
func initTransactionStore(ctx context.Context) (service.TransactionStore, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = config.DefaultDatabasePath()
	}
	dbPath = config.ExpandPath(dbPath)

	if err := config.EnsureParentDir(dbPath); err != nil {
		return nil, err
	}

	store, err := storage.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// initMappingStore opens the YAML mappings file.
func initMappingStore() (service.MappingStore, error) {
	path := viper.GetString("mappings.path")
	if path == "" {
		path = config.DefaultMappingsPath()
	}
	path = config.ExpandPath(path)

	if err := config.EnsureParentDir(path); err != nil {
		return nil, err
	}

	return storage.NewYAMLMappingStore(path), nil
}
