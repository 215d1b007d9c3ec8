package reliability

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/aristath/folio/internal/database"
	"github.com/aristath/folio/internal/events"
	testingpkg "github.com/aristath/folio/internal/testing"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	listErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: map[string][]byte{}}
}

func (m *memoryStore) Upload(ctx context.Context, key string, body io.Reader, size int64) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	if int64(len(data)) != size {
		return errors.New("size mismatch")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memoryStore) List(ctx context.Context, prefix string) ([]StoredObject, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []StoredObject
	for key, data := range m.objects {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			out = append(out, StoredObject{Key: key, Size: int64(len(data))})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *memoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memoryStore) put(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = []byte("x")
}

func (m *memoryStore) keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func setupLedger(t *testing.T) *database.DB {
	t.Helper()
	db, cleanup := testingpkg.NewTestDB(t, "ledger")
	t.Cleanup(cleanup)

	_, err := db.Conn().Exec(`INSERT INTO transactions
		(id, symbol, quantity, price, transaction_date, kind, created_at, updated_at)
		VALUES ('tx-1', 'AAPL', '10', '150', 1705276800, 'BUY', 1705276800, 1705276800)`)
	require.NoError(t, err)
	return db
}

func readArchive(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	gz, err := gzip.NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	tr := tar.NewReader(gz)

	files := map[string][]byte{}
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		content, err := io.ReadAll(tr)
		require.NoError(t, err)
		files[header.Name] = content
	}
	return files
}

func TestBackupService_CreateAndUpload(t *testing.T) {
	db := setupLedger(t)
	store := newMemoryStore()
	dataDir := t.TempDir()

	bus := events.NewBus()
	ch, _ := bus.Subscribe(4)
	s := NewBackupService(store, []Snapshotter{db}, "/folio/", dataDir, events.NewManager(bus, zerolog.Nop()), zerolog.Nop())
	s.now = func() time.Time { return time.Date(2024, 6, 1, 3, 0, 0, 0, time.UTC) }

	info, err := s.CreateAndUpload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "folio/folio-backup-2024-06-01-030000.tar.gz", info.Key)
	assert.Positive(t, info.SizeBytes)

	data, ok := store.objects[info.Key]
	require.True(t, ok)
	files := readArchive(t, data)
	require.Contains(t, files, "ledger.db")
	require.Contains(t, files, metadataFile)

	var metadata BackupMetadata
	require.NoError(t, json.Unmarshal(files[metadataFile], &metadata))
	require.Len(t, metadata.Databases, 1)
	assert.Equal(t, "ledger", metadata.Databases[0].Name)
	assert.Equal(t, int64(len(files["ledger.db"])), metadata.Databases[0].SizeBytes)
	assert.Contains(t, metadata.Databases[0].Checksum, "sha256:")

	event := <-ch
	assert.Equal(t, events.BackupCompleted, event.Type)

	// staging directory is removed
	entries, err := os.ReadDir(dataDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestBackupService_SnapshotIsReadable(t *testing.T) {
	db := setupLedger(t)
	store := newMemoryStore()
	s := NewBackupService(store, []Snapshotter{db}, "", t.TempDir(), nil, zerolog.Nop())

	info, err := s.CreateAndUpload(context.Background())
	require.NoError(t, err)

	snapshot := readArchive(t, store.objects[info.Key])["ledger.db"]
	path := t.TempDir() + "/restored.db"
	require.NoError(t, os.WriteFile(path, snapshot, 0o600))

	restored, err := database.New(database.Config{Path: path, Profile: database.ProfileStandard, Name: "restored"})
	require.NoError(t, err)
	defer restored.Close()

	var count int
	require.NoError(t, restored.Conn().QueryRow(`SELECT COUNT(*) FROM transactions`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestBackupService_List(t *testing.T) {
	store := newMemoryStore()
	store.put("folio/folio-backup-2024-06-01-030000.tar.gz")
	store.put("folio/folio-backup-2024-06-03-030000.tar.gz")
	store.put("folio/folio-backup-2024-06-02-030000.tar.gz")
	store.put("folio/folio-backup-garbage.tar.gz")
	store.put("other/folio-backup-2024-06-04-030000.tar.gz")

	s := NewBackupService(store, nil, "folio", t.TempDir(), nil, zerolog.Nop())
	s.now = func() time.Time { return time.Date(2024, 6, 3, 15, 0, 0, 0, time.UTC) }

	backups, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, backups, 3)
	assert.Equal(t, "folio/folio-backup-2024-06-03-030000.tar.gz", backups[0].Key)
	assert.Equal(t, int64(12), backups[0].AgeHours)
	assert.Equal(t, "folio/folio-backup-2024-06-01-030000.tar.gz", backups[2].Key)
}

func TestBackupService_ListError(t *testing.T) {
	store := newMemoryStore()
	store.listErr = errors.New("forbidden")
	s := NewBackupService(store, nil, "folio", t.TempDir(), nil, zerolog.Nop())

	_, err := s.List(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "forbidden")
}

func TestBackupService_Rotate(t *testing.T) {
	store := newMemoryStore()
	for _, day := range []string{"01", "02", "03", "20", "25", "28"} {
		store.put("folio/folio-backup-2024-05-" + day + "-030000.tar.gz")
	}

	s := NewBackupService(store, nil, "folio", t.TempDir(), nil, zerolog.Nop())
	s.now = func() time.Time { return time.Date(2024, 5, 30, 0, 0, 0, 0, time.UTC) }

	deleted, err := s.Rotate(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 3, deleted)
	assert.Equal(t, []string{
		"folio/folio-backup-2024-05-20-030000.tar.gz",
		"folio/folio-backup-2024-05-25-030000.tar.gz",
		"folio/folio-backup-2024-05-28-030000.tar.gz",
	}, store.keys())
}

func TestBackupService_RotateKeepsMinimum(t *testing.T) {
	store := newMemoryStore()
	store.put("folio/folio-backup-2020-01-01-030000.tar.gz")
	store.put("folio/folio-backup-2020-01-02-030000.tar.gz")
	s := NewBackupService(store, nil, "folio", t.TempDir(), nil, zerolog.Nop())

	deleted, err := s.Rotate(context.Background(), 1)
	require.NoError(t, err)
	assert.Zero(t, deleted)
	assert.Len(t, store.keys(), 2)

	deleted, err = s.Rotate(context.Background(), 0)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestDailyMaintenanceJob(t *testing.T) {
	db := setupLedger(t)
	job := NewDailyMaintenanceJob([]*database.DB{db}, t.TempDir(), zerolog.Nop())
	assert.Equal(t, "daily_maintenance", job.Name())

	job.diskUsage = func(path string) (*disk.UsageStat, error) {
		return &disk.UsageStat{Path: path, Free: 50 * 1024 * 1024 * 1024}, nil
	}
	assert.NoError(t, job.Run())

	job.diskUsage = func(path string) (*disk.UsageStat, error) {
		return &disk.UsageStat{Path: path, Free: 100 * 1024 * 1024}, nil
	}
	err := job.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GB free")
}

func TestDailyMaintenanceJob_NoDatabases(t *testing.T) {
	job := NewDailyMaintenanceJob(nil, t.TempDir(), zerolog.Nop())
	job.diskUsage = func(path string) (*disk.UsageStat, error) {
		return &disk.UsageStat{Free: 50 * 1024 * 1024 * 1024}, nil
	}
	assert.NoError(t, job.Run())
}
