package services

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/opensource-kemini/kemini-backend/internal/common"
	"github.com/opensource-kemini/kemini-backend/internal/dbx"
	"github.com/opensource-kemini/kemini-backend/internal/logging"
	"github.com/opensource-kemini/kemini-backend/internal/server/models"
	"github.com/opensource-kemini/kemini-backend/internal/server/repositories/envfiles"
	"github.com/opensource-kemini/kemini-backend/internal/server/repositories/environments"
	"github.com/opensource-kemini/kemini-backend/internal/server/repositories/users"
)

// --- shared helpers ---

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

// --- fake repositories (bound to no real DB; DBTX is ignored) ---

type fakeUsersRepo struct {
	byEmail   map[string]*models.User
	createErr error
	updateErr error
	deleted   []string
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	u.ID = int64(len(f.byEmail) + 1)
	if f.byEmail == nil {
		f.byEmail = map[string]*models.User{}
	}
	f.byEmail[u.Email] = u
	return u, nil
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, common.ErrNotFound
	}
	// a fresh value per read, as a real row scan would produce
	cp := *u
	return &cp, nil
}

func (f *fakeUsersRepo) UpdateDetails(ctx context.Context, email, name, phoneNumber string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	u, ok := f.byEmail[email]
	if !ok {
		return common.ErrNotFound
	}
	u.Name = name
	u.PhoneNumber = phoneNumber
	return nil
}

func (f *fakeUsersRepo) DeleteByEmail(ctx context.Context, email string) error {
	if _, ok := f.byEmail[email]; !ok {
		return common.ErrNotFound
	}
	delete(f.byEmail, email)
	f.deleted = append(f.deleted, email)
	return nil
}

type fakeEnvRepo struct {
	byID       map[int64]*models.Environment
	nextID     int64
	deletedIDs []int64
}

func (f *fakeEnvRepo) Create(ctx context.Context, env *models.Environment) (*models.Environment, error) {
	f.nextID++
	env.ID = f.nextID
	if f.byID == nil {
		f.byID = map[int64]*models.Environment{}
	}
	f.byID[env.ID] = env
	return env, nil
}

func (f *fakeEnvRepo) GetByID(ctx context.Context, id int64) (*models.Environment, error) {
	env, ok := f.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return env, nil
}

func (f *fakeEnvRepo) ListByUserID(ctx context.Context, userID int64) ([]*models.Environment, error) {
	// newest first, as the real repository orders by id desc
	var result []*models.Environment
	for id := f.nextID; id >= 1; id-- {
		if env, ok := f.byID[id]; ok && env.UserID == userID {
			result = append(result, env)
		}
	}
	return result, nil
}

func (f *fakeEnvRepo) UpdateName(ctx context.Context, id int64, name string) error {
	env, ok := f.byID[id]
	if !ok {
		return common.ErrNotFound
	}
	env.Name = name
	return nil
}

func (f *fakeEnvRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := f.byID[id]; !ok {
		return common.ErrNotFound
	}
	delete(f.byID, id)
	f.deletedIDs = append(f.deletedIDs, id)
	return nil
}

type fakeFileRepo struct {
	byEnvID       map[int64][]*models.EnvironmentFile
	nextID        int64
	createErr     error
	deletedEnvIDs []int64
}

func (f *fakeFileRepo) Create(ctx context.Context, file *models.EnvironmentFile) (*models.EnvironmentFile, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.byEnvID == nil {
		f.byEnvID = map[int64][]*models.EnvironmentFile{}
	}
	// upsert keyed by object key, like the real repository
	for _, existing := range f.byEnvID[file.EnvironmentID] {
		if existing.ObjectKey == file.ObjectKey {
			existing.FileType = file.FileType
			existing.OriginalFileName = file.OriginalFileName
			file.ID = existing.ID
			return existing, nil
		}
	}
	f.nextID++
	file.ID = f.nextID
	f.byEnvID[file.EnvironmentID] = append(f.byEnvID[file.EnvironmentID], file)
	return file, nil
}

func (f *fakeFileRepo) ListByEnvironmentID(ctx context.Context, environmentID int64) ([]*models.EnvironmentFile, error) {
	return f.byEnvID[environmentID], nil
}

func (f *fakeFileRepo) DeleteByEnvironmentID(ctx context.Context, environmentID int64) error {
	delete(f.byEnvID, environmentID)
	f.deletedEnvIDs = append(f.deletedEnvIDs, environmentID)
	return nil
}

type fakeRepoManager struct {
	users *fakeUsersRepo
	envs  *fakeEnvRepo
	files *fakeFileRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		users: &fakeUsersRepo{byEmail: map[string]*models.User{}},
		envs:  &fakeEnvRepo{byID: map[int64]*models.Environment{}},
		files: &fakeFileRepo{byEnvID: map[int64][]*models.EnvironmentFile{}},
	}
}

func (f *fakeRepoManager) Users(db dbx.DBTX) users.Repository               { return f.users }
func (f *fakeRepoManager) Environments(db dbx.DBTX) environments.Repository { return f.envs }
func (f *fakeRepoManager) EnvironmentFiles(db dbx.DBTX) envfiles.Repository { return f.files }
func (f *fakeRepoManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return nil
}

// --- fake blob storage gateway ---

type fakeGateway struct {
	presignErr  error
	deleteErr   error
	deletedKeys []string
}

func (f *fakeGateway) PresignUpload(ctx context.Context, key string) (string, error) {
	if f.presignErr != nil {
		return "", f.presignErr
	}
	return "https://upload.example/" + key, nil
}

func (f *fakeGateway) PublicURL(key string) string {
	return "https://files.example/" + key
}

func (f *fakeGateway) Delete(ctx context.Context, key string) error {
	f.deletedKeys = append(f.deletedKeys, key)
	return f.deleteErr
}
