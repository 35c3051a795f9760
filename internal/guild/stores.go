package guild

import (
	"path/filepath"

	"github.com/fireteam-lab/fireteam/internal/core/storage"
	"github.com/fireteam-lab/fireteam/internal/core/storage/filesystem"
	"github.com/fireteam-lab/fireteam/internal/core/storage/memory"
	"github.com/fireteam-lab/fireteam/internal/core/storage/postgres"
)

// FilesystemStores keeps each guild's snapshot under root/<guild id>.
func FilesystemStores(root string) StoreFactory {
	return func(guildID string) (storage.Store, error) {
		return filesystem.Open(filepath.Join(root, guildID))
	}
}

// PostgresStores keeps every guild's snapshot in one database.
func PostgresStores(adapter *postgres.Adapter) StoreFactory {
	return func(guildID string) (storage.Store, error) {
		return adapter.ForGuild(guildID), nil
	}
}

// MemoryStores keeps snapshots in process. Nothing survives a restart.
func MemoryStores() StoreFactory {
	return func(string) (storage.Store, error) {
		return memory.New(), nil
	}
}
