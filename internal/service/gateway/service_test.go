package gateway

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/swimhack/ezedit-gateway/internal/adapter/ftpclient"
	"github.com/swimhack/ezedit-gateway/internal/adapter/sqlite"
	"github.com/swimhack/ezedit-gateway/internal/domain"
	"github.com/swimhack/ezedit-gateway/internal/service/backup"
	"github.com/swimhack/ezedit-gateway/internal/service/credentials"
	"github.com/swimhack/ezedit-gateway/internal/service/events"
	"github.com/swimhack/ezedit-gateway/internal/service/locks"
	"github.com/swimhack/ezedit-gateway/internal/testutil"
)

type fixture struct {
	svc     *Service
	store   *sqlite.Store
	events  *events.Broadcaster
	conn    *domain.Connection
	ftpRoot string
}

// newFixture wires the full stack against a real in-process FTP server and
// a temp sqlite store, with fast read retries so failure paths stay quick.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	addr, root := testutil.StartFTPServer(t, map[string]string{"demo": "secret"})
	host, port := testutil.SplitAddr(t, addr)

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "gateway.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	conn := &domain.Connection{
		ID:       "conn-1",
		Label:    "test site",
		Host:     host,
		Port:     port,
		Username: "demo",
		Password: "secret",
	}
	require.NoError(t, store.CreateConnection(conn))

	log := zap.NewNop()
	broadcaster := events.New(log)
	svc := New(
		&Config{MaxUploadSize: 1 << 20, ReadRetries: 1, ReadRetryDelay: 10 * time.Millisecond},
		credentials.New(store, log),
		locks.New(&locks.Config{DefaultTTL: time.Minute}, store, log),
		backup.New(store, log),
		ftpclient.New(&ftpclient.Config{ConnectTimeout: 5 * time.Second}, log),
		store,
		broadcaster,
		log,
	)
	return &fixture{svc: svc, store: store, events: broadcaster, conn: conn, ftpRoot: root}
}

func (f *fixture) seedFile(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(f.ftpRoot, name), []byte(content), 0o644))
}

func TestWriteReadRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	content := []byte("Hello, gateway!\n")
	writeSum, err := f.svc.Write(ctx, WriteRequest{
		ConnectionID: f.conn.ID, Path: "/hello.txt", Content: content, Actor: "alice",
	})
	require.NoError(t, err)

	got, readSum, err := f.svc.Read(ctx, f.conn.ID, "/hello.txt")
	require.NoError(t, err)
	require.Equal(t, content, got)
	require.Equal(t, writeSum, readSum)

	// The mutation left a fresh file record behind.
	rec, err := f.store.GetFileRecord(f.conn.ID, "/hello.txt")
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.Equal(t, int64(len(content)), rec.Size)
}

func TestWriteRejectedWhileLockedByOther(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedFile(t, "page.html", "original")

	_, err := f.svc.Lock(ctx, f.conn.ID, "/page.html", "alice", 0)
	require.NoError(t, err)

	_, err = f.svc.Write(ctx, WriteRequest{
		ConnectionID: f.conn.ID, Path: "/page.html", Content: []byte("clobbered"), Actor: "bob",
	})
	require.True(t, domain.IsLocked(err))

	var le *domain.LockedError
	require.ErrorAs(t, err, &le)
	require.Equal(t, "alice", le.Holder)

	// The remote file was never touched.
	got, _, err := f.svc.Read(ctx, f.conn.ID, "/page.html")
	require.NoError(t, err)
	require.Equal(t, []byte("original"), got)
}

func TestWriteByHolderReleasesLock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Lock(ctx, f.conn.ID, "/doc.txt", "alice", 0)
	require.NoError(t, err)

	_, err = f.svc.Write(ctx, WriteRequest{
		ConnectionID: f.conn.ID, Path: "/doc.txt", Content: []byte("v1"), Actor: "alice",
	})
	require.NoError(t, err)

	// The save released alice's lock, so bob can take it now.
	lock, err := f.store.GetLock(f.conn.ID, "/doc.txt")
	require.NoError(t, err)
	require.Nil(t, lock)
}

func TestChecksumConflictDoesNotOverwrite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedFile(t, "shared.txt", "version one")

	_, stale, err := f.svc.Read(ctx, f.conn.ID, "/shared.txt")
	require.NoError(t, err)

	// Someone else saves in between.
	_, err = f.svc.Write(ctx, WriteRequest{
		ConnectionID: f.conn.ID, Path: "/shared.txt", Content: []byte("version two"), Actor: "bob",
	})
	require.NoError(t, err)

	// Writing with the stale checksum must conflict, not overwrite.
	_, err = f.svc.Write(ctx, WriteRequest{
		ConnectionID: f.conn.ID, Path: "/shared.txt", Content: []byte("lost update"),
		OriginalChecksum: stale, Actor: "alice",
	})
	require.True(t, domain.IsConflict(err))

	got, _, err := f.svc.Read(ctx, f.conn.ID, "/shared.txt")
	require.NoError(t, err)
	require.Equal(t, []byte("version two"), got)
}

func TestWriteRecordsBackup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedFile(t, "backed.txt", "old content")

	_, err := f.svc.Write(ctx, WriteRequest{
		ConnectionID: f.conn.ID, Path: "/backed.txt", Content: []byte("new content"), Actor: "alice",
	})
	require.NoError(t, err)

	backups, err := f.store.ListBackups(f.conn.ID, "/backed.txt")
	require.NoError(t, err)
	require.Len(t, backups, 1)
	require.Equal(t, []byte("old content"), backups[0].OriginalContent)
	require.Equal(t, []byte("new content"), backups[0].NewContent)
}

func TestLockIdempotenceExtendsExpiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Lock(ctx, f.conn.ID, "/a.txt", "alice", 5)
	require.NoError(t, err)

	second, err := f.svc.Lock(ctx, f.conn.ID, "/a.txt", "alice", 10)
	require.NoError(t, err)
	require.False(t, second.ExpiresAt.Before(first.ExpiresAt))
}

func TestLockContestedReportsHolder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Lock(ctx, f.conn.ID, "/a.txt", "alice", 0)
	require.NoError(t, err)

	_, err = f.svc.Lock(ctx, f.conn.ID, "/a.txt", "bob", 0)
	var le *domain.LockedError
	require.ErrorAs(t, err, &le)
	require.Equal(t, "alice", le.Holder)
}

func TestDeleteLockedReportsHolder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedFile(t, "keep.txt", "data")

	_, err := f.svc.Lock(ctx, f.conn.ID, "/keep.txt", "alice", 0)
	require.NoError(t, err)

	err = f.svc.Delete(ctx, f.conn.ID, "/keep.txt", "bob")
	var le *domain.LockedError
	require.ErrorAs(t, err, &le)
	require.Equal(t, "alice", le.Holder)

	_, err = os.Stat(filepath.Join(f.ftpRoot, "keep.txt"))
	require.NoError(t, err, "locked file must survive the delete attempt")
}

func TestDeleteRemovesFileAndKeepsSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedFile(t, "gone.txt", "last words")

	require.NoError(t, f.svc.Delete(ctx, f.conn.ID, "/gone.txt", "alice"))

	_, err := os.Stat(filepath.Join(f.ftpRoot, "gone.txt"))
	require.True(t, os.IsNotExist(err))

	backups, err := f.store.ListBackups(f.conn.ID, "/gone.txt")
	require.NoError(t, err)
	require.Len(t, backups, 1)
	require.Equal(t, []byte("last words"), backups[0].OriginalContent)
	require.True(t, backups[0].IsDelete())
}

func TestRenameVisibleInListing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedFile(t, "a.txt", "payload")

	require.NoError(t, f.svc.Rename(ctx, f.conn.ID, "/a.txt", "/b.txt", "alice"))

	entries, err := f.svc.List(ctx, f.conn.ID, "/")
	require.NoError(t, err)

	names := make(map[string]bool, len(entries))
	for _, e := range entries {
		names[e.Name] = true
	}
	require.True(t, names["b.txt"])
	require.False(t, names["a.txt"])
}

func TestRenameGuardsTargetPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedFile(t, "src.txt", "payload")
	f.seedFile(t, "dst.txt", "existing")

	_, err := f.svc.Lock(ctx, f.conn.ID, "/dst.txt", "alice", 0)
	require.NoError(t, err)

	err = f.svc.Rename(ctx, f.conn.ID, "/src.txt", "/dst.txt", "bob")
	require.True(t, domain.IsLocked(err))
}

func TestListMixedEntries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedFile(t, "file.txt", "x")
	require.NoError(t, os.Mkdir(filepath.Join(f.ftpRoot, "subdir"), 0o755))

	entries, err := f.svc.List(ctx, f.conn.ID, "/")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	byName := make(map[string]domain.FileEntry, len(entries))
	for _, e := range entries {
		byName[e.Name] = e
	}
	require.False(t, byName["file.txt"].IsDirectory)
	require.True(t, byName["subdir"].IsDirectory)

	// Listing refreshed the record for the file, not the directory.
	rec, err := f.store.GetFileRecord(f.conn.ID, "/file.txt")
	require.NoError(t, err)
	require.NotNil(t, rec)
	rec, err = f.store.GetFileRecord(f.conn.ID, "/subdir")
	require.NoError(t, err)
	require.Nil(t, rec)
}

func TestUpload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	stored, err := f.svc.Upload(ctx, f.conn.ID, "/", "upload.bin", []byte("binary payload"))
	require.NoError(t, err)
	require.Equal(t, "/upload.bin", stored)

	got, _, err := f.svc.Read(ctx, f.conn.ID, stored)
	require.NoError(t, err)
	require.Equal(t, []byte("binary payload"), got)
}

func TestUploadTooLarge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	big := make([]byte, 2<<20)
	_, err := f.svc.Upload(ctx, f.conn.ID, "/", "huge.bin", big)
	require.ErrorIs(t, err, domain.ErrFileTooLarge)
}

func TestTestConnection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	host, port := f.conn.Host, f.conn.Port

	require.NoError(t, f.svc.TestConnection(ctx, TestRequest{
		Host: host, Port: port, Username: "demo", Password: "secret",
	}))

	err := f.svc.TestConnection(ctx, TestRequest{
		Host: host, Port: port, Username: "demo", Password: "wrong",
	})
	te, ok := domain.AsTransfer(err)
	require.True(t, ok)
	require.Equal(t, domain.KindAuthFailed, te.Kind)
	require.Contains(t, te.UserMessage(), "authentication")

	require.ErrorIs(t, f.svc.TestConnection(ctx, TestRequest{Username: "demo"}), domain.ErrInvalidInput)
	require.ErrorIs(t, f.svc.TestConnection(ctx, TestRequest{Host: host}), domain.ErrInvalidInput)
}

func TestReadMissingFile(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.svc.Read(context.Background(), f.conn.ID, "/absent.txt")
	te, ok := domain.AsTransfer(err)
	require.True(t, ok)
	require.Equal(t, domain.KindRemoteFailed, te.Kind)
}

func TestUnknownConnection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.List(ctx, "no-such-conn", "/")
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.Lock(ctx, "no-such-conn", "/a.txt", "alice", 0)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMutationEventsPublished(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ch, cancel := f.events.Subscribe(f.conn.ID)
	defer cancel()

	_, err := f.svc.Write(ctx, WriteRequest{
		ConnectionID: f.conn.ID, Path: "/notify.txt", Content: []byte("x"), Actor: "alice",
	})
	require.NoError(t, err)

	select {
	case ev := <-ch:
		require.Equal(t, domain.EventUpdated, ev.Kind)
		require.Equal(t, "/notify.txt", ev.Path)
		require.Equal(t, "alice", ev.Actor)
	case <-time.After(time.Second):
		t.Fatal("no event after write")
	}
}
