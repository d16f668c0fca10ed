package core

import (
	"context"

	"github.com/wrenlab/folio-backend/cache"
	"github.com/wrenlab/folio-backend/database"
	"github.com/wrenlab/folio-backend/storage/chunkstore"
)

func checkDatabaseHealth(provider database.Provider) string {
	if provider == nil {
		return "not initialized"
	}
	if err := provider.Ping(); err != nil {
		return "unavailable: " + err.Error()
	}
	return "ok"
}

func checkCacheHealth(provider cache.Provider) string {
	if provider == nil {
		return "not initialized"
	}
	return "ok"
}

func checkStorageHealth(store *chunkstore.Store) string {
	if store == nil {
		return "not initialized"
	}
	if err := store.Health(context.Background()); err != nil {
		return "error: " + err.Error()
	}
	return "ok"
}
