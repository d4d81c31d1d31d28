package service

import (
	"context"
	"io"

	"tush00nka/filestash/internal/backend"
	"tush00nka/filestash/internal/model"
)

// Backend hands out the capability-scoped clients services run against.
// *backend.Factory implements it.
type Backend interface {
	Admin() *backend.AdminClient
	Session(ctx context.Context, token string) (*backend.SessionClient, error)
}

type UserService interface {
	// SignUp registers fullName under email (if not yet registered) and sends
	// a one-time code. It returns the account id the code was issued for.
	SignUp(ctx context.Context, fullName, email string) (string, error)
	// SignIn sends a one-time code to an existing user.
	SignIn(ctx context.Context, email string) (string, error)
	Verify(ctx context.Context, accountID, code string) (string, error)
	CurrentUser(ctx context.Context, token string) (*model.User, error)
	SignOut(ctx context.Context, token string) error
}

// Upload is an incoming file.
type Upload struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

type ListFilter struct {
	Types  []model.FileType
	Search string
	Sort   string
	Limit  int
}

type FileService interface {
	Upload(ctx context.Context, owner *model.User, upload Upload) (*model.File, error)
	Get(ctx context.Context, requester *model.User, fileID string) (*model.File, error)
	List(ctx context.Context, user *model.User, filter ListFilter) (*model.FileList, error)
	Rename(ctx context.Context, requester *model.User, fileID, name string) (*model.File, error)
	Share(ctx context.Context, requester *model.User, fileID string, emails []string) (*model.File, error)
	// DeleteOrUnshare deletes the file when requester owns it and otherwise
	// only revokes requester's own access.
	DeleteOrUnshare(ctx context.Context, requester *model.User, fileID, blobID string) error
	Usage(ctx context.Context, user *model.User) (*model.SpaceUsage, error)
	ViewURL(ctx context.Context, bucket, blobID string) (string, error)
}
