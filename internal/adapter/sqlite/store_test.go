package sqlite

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/swimhack/ezedit-gateway/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "gateway.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestConnectionCRUD(t *testing.T) {
	store := openTestStore(t)

	conn := &domain.Connection{
		ID:       "c1",
		Label:    "Legacy site",
		Host:     "ftp.example.com",
		Port:     21,
		Username: "demo",
		Password: "secret",
		RootDir:  "/www",
	}
	require.NoError(t, store.CreateConnection(conn))

	got, err := store.GetConnection("c1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "ftp.example.com", got.Host)
	require.Equal(t, "secret", got.Password)

	missing, err := store.GetConnection("nope")
	require.NoError(t, err)
	require.Nil(t, missing)

	list, err := store.ListConnections()
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestDeleteConnectionCascades(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.CreateConnection(&domain.Connection{
		ID: "c1", Host: "h", Username: "u", Password: "p",
	}))
	require.NoError(t, store.UpsertLock(&domain.FileLock{
		ConnectionID: "c1", Path: "/a.txt", Holder: "alice", ExpiresAt: time.Now().Add(time.Hour),
	}))
	require.NoError(t, store.UpsertFileRecord(&domain.FileRecord{
		ConnectionID: "c1", Path: "/a.txt", Size: 3, ModifiedAt: time.Now(),
	}))
	require.NoError(t, store.CreateBackup(&domain.Backup{
		ID: "b1", ConnectionID: "c1", Path: "/a.txt", OriginalContent: []byte("old"), Checksum: "abc",
	}))

	require.NoError(t, store.DeleteConnection("c1"))

	conn, err := store.GetConnection("c1")
	require.NoError(t, err)
	require.Nil(t, conn)

	lock, err := store.GetLock("c1", "/a.txt")
	require.NoError(t, err)
	require.Nil(t, lock)

	records, err := store.ListFileRecords("c1")
	require.NoError(t, err)
	require.Empty(t, records)

	backups, err := store.ListBackups("c1", "/a.txt")
	require.NoError(t, err)
	require.Empty(t, backups)
}

func TestLockUpsertAndDelete(t *testing.T) {
	store := openTestStore(t)

	expires := time.Now().Add(15 * time.Minute).UTC()
	require.NoError(t, store.UpsertLock(&domain.FileLock{
		ConnectionID: "c1", Path: "/a.txt", Holder: "alice", ExpiresAt: expires,
	}))

	lock, err := store.GetLock("c1", "/a.txt")
	require.NoError(t, err)
	require.NotNil(t, lock)
	require.Equal(t, "alice", lock.Holder)
	require.WithinDuration(t, expires, lock.ExpiresAt, time.Second)

	// Same key, new holder: row is replaced, not duplicated.
	require.NoError(t, store.UpsertLock(&domain.FileLock{
		ConnectionID: "c1", Path: "/a.txt", Holder: "bob", ExpiresAt: expires.Add(time.Minute),
	}))
	lock, err = store.GetLock("c1", "/a.txt")
	require.NoError(t, err)
	require.Equal(t, "bob", lock.Holder)

	require.NoError(t, store.DeleteLock("c1", "/a.txt"))
	lock, err = store.GetLock("c1", "/a.txt")
	require.NoError(t, err)
	require.Nil(t, lock)

	// Deleting again is a no-op.
	require.NoError(t, store.DeleteLock("c1", "/a.txt"))
}

func TestDeleteExpiredLocks(t *testing.T) {
	store := openTestStore(t)

	now := time.Now().UTC()
	require.NoError(t, store.UpsertLock(&domain.FileLock{
		ConnectionID: "c1", Path: "/stale.txt", Holder: "alice", ExpiresAt: now.Add(-time.Hour),
	}))
	require.NoError(t, store.UpsertLock(&domain.FileLock{
		ConnectionID: "c1", Path: "/live.txt", Holder: "bob", ExpiresAt: now.Add(time.Hour),
	}))

	removed, err := store.DeleteExpiredLocks(now)
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)

	live, err := store.GetLock("c1", "/live.txt")
	require.NoError(t, err)
	require.NotNil(t, live)
}

func TestFileRecordLifecycle(t *testing.T) {
	store := openTestStore(t)

	rec := &domain.FileRecord{
		ConnectionID: "c1", Path: "/a.txt", Size: 10, ModifiedAt: time.Now().UTC(),
	}
	require.NoError(t, store.UpsertFileRecord(rec))

	// Upsert refreshes in place.
	rec.Size = 20
	require.NoError(t, store.UpsertFileRecord(rec))

	got, err := store.GetFileRecord("c1", "/a.txt")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.EqualValues(t, 20, got.Size)

	require.NoError(t, store.RenameFileRecord("c1", "/a.txt", "/b.txt"))

	gone, err := store.GetFileRecord("c1", "/a.txt")
	require.NoError(t, err)
	require.Nil(t, gone)

	moved, err := store.GetFileRecord("c1", "/b.txt")
	require.NoError(t, err)
	require.NotNil(t, moved)
	require.EqualValues(t, 20, moved.Size)

	require.NoError(t, store.DeleteFileRecord("c1", "/b.txt"))
	records, err := store.ListFileRecords("c1")
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestRenameFileRecordReplacesTarget(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.UpsertFileRecord(&domain.FileRecord{
		ConnectionID: "c1", Path: "/a.txt", Size: 1, ModifiedAt: time.Now().UTC(),
	}))
	require.NoError(t, store.UpsertFileRecord(&domain.FileRecord{
		ConnectionID: "c1", Path: "/b.txt", Size: 2, ModifiedAt: time.Now().UTC(),
	}))

	require.NoError(t, store.RenameFileRecord("c1", "/a.txt", "/b.txt"))

	records, err := store.ListFileRecords("c1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "/b.txt", records[0].Path)
	require.EqualValues(t, 1, records[0].Size)
}

func TestBackupCreateListPrune(t *testing.T) {
	store := openTestStore(t)

	old := &domain.Backup{
		ID: "b1", ConnectionID: "c1", Path: "/a.txt",
		OriginalContent: []byte("v1"), NewContent: []byte("v2"),
		Checksum: "c1sum", CreatedAt: time.Now().Add(-48 * time.Hour).UTC(),
	}
	recent := &domain.Backup{
		ID: "b2", ConnectionID: "c1", Path: "/a.txt",
		OriginalContent: []byte("v2"), NewContent: nil,
		Checksum: "c2sum",
	}
	require.NoError(t, store.CreateBackup(old))
	require.NoError(t, store.CreateBackup(recent))

	backups, err := store.ListBackups("c1", "/a.txt")
	require.NoError(t, err)
	require.Len(t, backups, 2)
	require.Equal(t, "b2", backups[0].ID)
	require.True(t, backups[0].IsDelete())
	require.False(t, backups[1].IsDelete())

	removed, err := store.DeleteBackupsBefore(time.Now().Add(-24 * time.Hour))
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)
}
