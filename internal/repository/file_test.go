package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tush00nka/filestash/internal/apperr"
	"tush00nka/filestash/internal/model"
	"tush00nka/filestash/internal/query"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.New().String() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	return db
}

type fixture struct {
	files FileRepository
	alice *model.User
	bob   *model.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	db := newTestDB(t)

	users := NewUserRepository(db)
	alice := &model.User{AccountID: "acc-alice", FullName: "Alice", Email: "alice@x.io"}
	bob := &model.User{AccountID: "acc-bob", FullName: "Bob", Email: "bob@x.io"}
	require.NoError(t, users.Create(ctx, alice))
	require.NoError(t, users.Create(ctx, bob))

	return &fixture{files: NewFileRepository(db), alice: alice, bob: bob}
}

func (f *fixture) addFile(t *testing.T, owner *model.User, name string, size int64, createdAt time.Time) *model.File {
	t.Helper()
	fileType, ext := model.ClassifyFile(name)
	file := &model.File{
		OwnerID:   owner.ID,
		AccountID: owner.AccountID,
		Name:      name,
		Type:      fileType,
		Extension: ext,
		URL:       "https://files.example/" + name,
		Size:      size,
		BlobID:    uuid.New().String(),
		CreatedAt: createdAt,
	}
	require.NoError(t, f.files.Create(context.Background(), file))
	return file
}

func names(list *model.FileList) []string {
	out := make([]string, 0, len(list.Documents))
	for _, f := range list.Documents {
		out = append(out, f.Name)
	}
	return out
}

func TestFileRepositoryCreateAndFind(t *testing.T) {
	fx := newFixture(t)
	created := fx.addFile(t, fx.alice, "report.pdf", 120, time.Now())

	assert.NotEmpty(t, created.ID)
	assert.Empty(t, created.SharedWith)

	got, err := fx.files.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", got.Name)
	assert.Equal(t, model.FileTypeDocument, got.Type)
	require.NotNil(t, got.Owner)
	assert.Equal(t, "alice@x.io", got.Owner.Email)
	assert.Empty(t, got.SharedWith)
}

func TestFileRepositoryFindMissing(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.files.FindByID(context.Background(), "nope")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestFileRepositoryUpdateReplacesShares(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	file := fx.addFile(t, fx.alice, "photo.png", 10, time.Now())

	_, err := fx.files.Update(ctx, file.ID, FilePatch{SharedWith: []string{"y@x.io"}})
	require.NoError(t, err)

	updated, err := fx.files.Update(ctx, file.ID, FilePatch{SharedWith: []string{"x@x.io"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"x@x.io"}, updated.SharedWith)
	assert.Equal(t, "photo.png", updated.Name)

	cleared, err := fx.files.Update(ctx, file.ID, FilePatch{SharedWith: []string{}})
	require.NoError(t, err)
	assert.Empty(t, cleared.SharedWith)
}

func TestFileRepositoryUpdateName(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	file := fx.addFile(t, fx.alice, "photo.png", 10, time.Now())
	_, err := fx.files.Update(ctx, file.ID, FilePatch{SharedWith: []string{"bob@x.io"}})
	require.NoError(t, err)

	name := "renamed.mp3"
	updated, err := fx.files.Update(ctx, file.ID, FilePatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "renamed.mp3", updated.Name)
	assert.Equal(t, model.FileTypeImage, updated.Type)
	assert.Equal(t, "png", updated.Extension)
	assert.Equal(t, []string{"bob@x.io"}, updated.SharedWith)

	_, err = fx.files.Update(ctx, "missing", FilePatch{Name: &name})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestFileRepositoryDelete(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	file := fx.addFile(t, fx.alice, "photo.png", 10, time.Now())
	_, err := fx.files.Update(ctx, file.ID, FilePatch{SharedWith: []string{"bob@x.io"}})
	require.NoError(t, err)

	require.NoError(t, fx.files.Delete(ctx, file.ID))

	_, err = fx.files.FindByID(ctx, file.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorIs(t, fx.files.Delete(ctx, file.ID), apperr.ErrNotFound)
}

func TestFileRepositoryListOwnedOrShared(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	fx.addFile(t, fx.alice, "a-notes.txt", 1, base)
	fx.addFile(t, fx.alice, "a-photo.png", 2, base.Add(time.Hour))
	shared := fx.addFile(t, fx.bob, "b-shared.mp4", 3, base.Add(2*time.Hour))
	fx.addFile(t, fx.bob, "b-private.mp3", 4, base.Add(3*time.Hour))
	_, err := fx.files.Update(ctx, shared.ID, FilePatch{SharedWith: []string{"alice@x.io"}})
	require.NoError(t, err)

	list, err := fx.files.List(ctx, query.Build(query.Filter{OwnerID: fx.alice.ID, Email: fx.alice.Email}))
	require.NoError(t, err)
	assert.Equal(t, int64(3), list.Total)
	assert.Equal(t, []string{"b-shared.mp4", "a-photo.png", "a-notes.txt"}, names(list))

	list, err = fx.files.List(ctx, []query.Predicate{query.OwnedBy{OwnerID: fx.bob.ID}, query.Order{Key: "size", Desc: false}})
	require.NoError(t, err)
	assert.Equal(t, []string{"b-shared.mp4", "b-private.mp3"}, names(list))
}

func TestFileRepositoryListFilters(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	fx.addFile(t, fx.alice, "holiday_1.png", 1, base)
	fx.addFile(t, fx.alice, "holidayX.png", 2, base.Add(time.Hour))
	fx.addFile(t, fx.alice, "holiday.pdf", 3, base.Add(2*time.Hour))
	fx.addFile(t, fx.alice, "work.png", 4, base.Add(3*time.Hour))

	list, err := fx.files.List(ctx, query.Build(query.Filter{
		OwnerID: fx.alice.ID,
		Email:   fx.alice.Email,
		Types:   []model.FileType{model.FileTypeImage},
		Search:  "holiday",
		Sort:    "name-asc",
	}))
	require.NoError(t, err)
	assert.Equal(t, []string{"holidayX.png", "holiday_1.png"}, names(list))

	list, err = fx.files.List(ctx, query.Build(query.Filter{
		OwnerID: fx.alice.ID,
		Email:   fx.alice.Email,
		Search:  "y_",
	}))
	require.NoError(t, err)
	assert.Equal(t, []string{"holiday_1.png"}, names(list))

	list, err = fx.files.List(ctx, query.Build(query.Filter{
		OwnerID: fx.alice.ID,
		Email:   fx.alice.Email,
		Limit:   2,
	}))
	require.NoError(t, err)
	assert.Equal(t, int64(4), list.Total)
	assert.Equal(t, []string{"work.png", "holiday.pdf"}, names(list))
}

func TestFileRepositoryListRejectsUnknownSortKey(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.files.List(context.Background(), query.Build(query.Filter{
		OwnerID: fx.alice.ID,
		Sort:    "owner_id; DROP TABLE files-asc",
	}))
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
