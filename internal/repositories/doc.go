// Package repositories implements SQLite persistence for client-local state.
//
// The store is a plain key/value table (local_storage) standing in for the browser's local storage.
//
// Key Implementations:
//   - [LocalStorageRepository] : Get/Set/Delete of string values by key
//   - [TokenStore] : Persists the session's access and refresh tokens under the fixed keys [AccessKey] and [RefreshKey]
//
// Writes for a token pair happen in one transaction so the two keys are never observed half-updated.
package repositories
