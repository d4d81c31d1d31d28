package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tush00nka/filestash/internal/apperr"
	"tush00nka/filestash/internal/backend"
	"tush00nka/filestash/internal/model"
	"tush00nka/filestash/internal/repository"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+uuid.New().String()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, repository.Migrate(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

// memBlobs is an in-memory BlobStore.
type memBlobs struct {
	mu        sync.Mutex
	blobs     map[string][]byte
	storeErr  error
	deleteErr error
}

func newMemBlobs() *memBlobs {
	return &memBlobs{blobs: map[string][]byte{}}
}

func (m *memBlobs) StoreBlob(_ context.Context, bucket, name, contentType string, body io.Reader) (*model.Blob, error) {
	if m.storeErr != nil {
		return nil, m.storeErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New().String()
	m.blobs[id] = data
	return &model.Blob{ID: id, Bucket: bucket, Name: name, Size: int64(len(data)), ContentType: contentType}, nil
}

func (m *memBlobs) DeleteBlob(_ context.Context, _, blobID string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.blobs[blobID]; !ok {
		return apperr.ErrNotFound
	}
	delete(m.blobs, blobID)
	return nil
}

func (m *memBlobs) PresignView(_ context.Context, bucket, blobID string, _ time.Duration) (string, error) {
	return "https://s3.local/" + bucket + "/" + blobID + "?sig=1", nil
}

func (m *memBlobs) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.blobs)
}

func (m *memBlobs) has(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.blobs[id]
	return ok
}

// failingFiles makes Create fail while delegating everything else.
type failingFiles struct {
	repository.FileRepository
	createErr error
}

func (f *failingFiles) Create(ctx context.Context, file *model.File) error {
	if f.createErr != nil {
		return f.createErr
	}
	return f.FileRepository.Create(ctx, file)
}

type memUsageCache struct {
	mu          sync.Mutex
	entries     map[string]*model.SpaceUsage
	invalidated []string
}

func newMemUsageCache() *memUsageCache {
	return &memUsageCache{entries: map[string]*model.SpaceUsage{}}
}

func (c *memUsageCache) Get(_ context.Context, ownerID string) (*model.SpaceUsage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	u, ok := c.entries[ownerID]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return u, nil
}

func (c *memUsageCache) Set(_ context.Context, ownerID string, usage *model.SpaceUsage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[ownerID] = usage
	return nil
}

func (c *memUsageCache) Invalidate(_ context.Context, ownerID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, ownerID)
	c.invalidated = append(c.invalidated, ownerID)
	return nil
}

// adminOnly serves a fixed admin client and refuses sessions.
type adminOnly struct {
	admin *backend.AdminClient
}

func (b *adminOnly) Admin() *backend.AdminClient { return b.admin }

func (b *adminOnly) Session(context.Context, string) (*backend.SessionClient, error) {
	return nil, errors.New("sessions are not available")
}

type memChallenges struct {
	mu       sync.Mutex
	codes    map[string]model.VerificationCode
	attempts map[string]int
}

func (m *memChallenges) Save(_ context.Context, code *model.VerificationCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[code.AccountID] = *code
	delete(m.attempts, code.AccountID)
	return nil
}

func (m *memChallenges) CountAttempt(_ context.Context, accountID string, _ time.Duration) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.attempts == nil {
		m.attempts = map[string]int{}
	}
	m.attempts[accountID]++
	return m.attempts[accountID], nil
}

func (m *memChallenges) Get(_ context.Context, accountID string) (*model.VerificationCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	code, ok := m.codes[accountID]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &code, nil
}

func (m *memChallenges) Delete(_ context.Context, accountID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.codes, accountID)
	return nil
}

type memSessions struct {
	mu       sync.Mutex
	sessions map[string]string
}

func (m *memSessions) Save(_ context.Context, sessionID, accountID string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sessionID] = accountID
	return nil
}

func (m *memSessions) AccountID(_ context.Context, sessionID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.sessions[sessionID]
	if !ok {
		return "", apperr.ErrNotFound
	}
	return id, nil
}

func (m *memSessions) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}

type outbox struct {
	mu   sync.Mutex
	sent map[string]string
}

func (o *outbox) SendCode(_ context.Context, email, code string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent[email] = code
	return nil
}

func (o *outbox) last(email string) string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sent[email]
}

func content(s string) Upload {
	return Upload{Size: int64(len(s)), Body: bytes.NewBufferString(s)}
}
