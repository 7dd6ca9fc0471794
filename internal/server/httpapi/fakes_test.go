package httpapi

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/golang-jwt/jwt/v5"

	"github.com/opensource-kemini/kemini-backend/internal/common"
	"github.com/opensource-kemini/kemini-backend/internal/dbx"
	"github.com/opensource-kemini/kemini-backend/internal/logging"
	sc "github.com/opensource-kemini/kemini-backend/internal/server/config"
	"github.com/opensource-kemini/kemini-backend/internal/server/models"
	"github.com/opensource-kemini/kemini-backend/internal/server/repositories/envfiles"
	"github.com/opensource-kemini/kemini-backend/internal/server/repositories/environments"
	"github.com/opensource-kemini/kemini-backend/internal/server/repositories/users"
	"github.com/opensource-kemini/kemini-backend/internal/server/services"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// signedToken mints a token whose claims decode locally; the signing key is
// irrelevant because signatures are never checked on this side.
func signedToken(t *testing.T, username string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"username": username})
	signed, err := token.SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return signed
}

// fakeVerifier stands in for the identity provider's online check.
type fakeVerifier struct {
	valid  bool
	tokens []string
}

func (f *fakeVerifier) Verify(ctx context.Context, accessToken string) bool {
	f.tokens = append(f.tokens, accessToken)
	return f.valid
}

// --- in-memory repositories ---

type memUsersRepo struct {
	byEmail map[string]*models.User
	nextID  int64
}

func (m *memUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	m.nextID++
	u.ID = m.nextID
	m.byEmail[u.Email] = u
	return u, nil
}

func (m *memUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsersRepo) UpdateDetails(ctx context.Context, email, name, phoneNumber string) error {
	u, ok := m.byEmail[email]
	if !ok {
		return common.ErrNotFound
	}
	u.Name = name
	u.PhoneNumber = phoneNumber
	return nil
}

func (m *memUsersRepo) DeleteByEmail(ctx context.Context, email string) error {
	if _, ok := m.byEmail[email]; !ok {
		return common.ErrNotFound
	}
	delete(m.byEmail, email)
	return nil
}

type memEnvRepo struct {
	byID   map[int64]*models.Environment
	nextID int64
}

func (m *memEnvRepo) Create(ctx context.Context, env *models.Environment) (*models.Environment, error) {
	m.nextID++
	env.ID = m.nextID
	m.byID[env.ID] = env
	return env, nil
}

func (m *memEnvRepo) GetByID(ctx context.Context, id int64) (*models.Environment, error) {
	env, ok := m.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return env, nil
}

func (m *memEnvRepo) ListByUserID(ctx context.Context, userID int64) ([]*models.Environment, error) {
	var result []*models.Environment
	for id := m.nextID; id >= 1; id-- {
		if env, ok := m.byID[id]; ok && env.UserID == userID {
			result = append(result, env)
		}
	}
	return result, nil
}

func (m *memEnvRepo) UpdateName(ctx context.Context, id int64, name string) error {
	env, ok := m.byID[id]
	if !ok {
		return common.ErrNotFound
	}
	env.Name = name
	return nil
}

func (m *memEnvRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := m.byID[id]; !ok {
		return common.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

type memFileRepo struct {
	byEnvID map[int64][]*models.EnvironmentFile
	nextID  int64
}

func (m *memFileRepo) Create(ctx context.Context, file *models.EnvironmentFile) (*models.EnvironmentFile, error) {
	for _, existing := range m.byEnvID[file.EnvironmentID] {
		if existing.ObjectKey == file.ObjectKey {
			existing.FileType = file.FileType
			existing.OriginalFileName = file.OriginalFileName
			file.ID = existing.ID
			return existing, nil
		}
	}
	m.nextID++
	file.ID = m.nextID
	m.byEnvID[file.EnvironmentID] = append(m.byEnvID[file.EnvironmentID], file)
	return file, nil
}

func (m *memFileRepo) ListByEnvironmentID(ctx context.Context, environmentID int64) ([]*models.EnvironmentFile, error) {
	return m.byEnvID[environmentID], nil
}

func (m *memFileRepo) DeleteByEnvironmentID(ctx context.Context, environmentID int64) error {
	delete(m.byEnvID, environmentID)
	return nil
}

type memRepoManager struct {
	users *memUsersRepo
	envs  *memEnvRepo
	files *memFileRepo
}

func newMemRepoManager() *memRepoManager {
	return &memRepoManager{
		users: &memUsersRepo{byEmail: map[string]*models.User{}},
		envs:  &memEnvRepo{byID: map[int64]*models.Environment{}},
		files: &memFileRepo{byEnvID: map[int64][]*models.EnvironmentFile{}},
	}
}

func (m *memRepoManager) Users(db dbx.DBTX) users.Repository               { return m.users }
func (m *memRepoManager) Environments(db dbx.DBTX) environments.Repository { return m.envs }
func (m *memRepoManager) EnvironmentFiles(db dbx.DBTX) envfiles.Repository { return m.files }
func (m *memRepoManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return nil
}

// --- fake blob storage gateway ---

type memGateway struct{}

func (memGateway) PresignUpload(ctx context.Context, key string) (string, error) {
	return "https://upload.example/" + key, nil
}

func (memGateway) PublicURL(key string) string {
	return "https://files.example/" + key
}

func (memGateway) Delete(ctx context.Context, key string) error {
	return nil
}

// --- fake identity provider admin API ---

type memIDP struct{}

func (memIDP) SignUp(ctx context.Context, params *cognitoidentityprovider.SignUpInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.SignUpOutput, error) {
	return &cognitoidentityprovider.SignUpOutput{}, nil
}

func (memIDP) AdminConfirmSignUp(ctx context.Context, params *cognitoidentityprovider.AdminConfirmSignUpInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminConfirmSignUpOutput, error) {
	return &cognitoidentityprovider.AdminConfirmSignUpOutput{}, nil
}

func (memIDP) AdminUpdateUserAttributes(ctx context.Context, params *cognitoidentityprovider.AdminUpdateUserAttributesInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminUpdateUserAttributesOutput, error) {
	return &cognitoidentityprovider.AdminUpdateUserAttributesOutput{}, nil
}

func (memIDP) AdminDeleteUser(ctx context.Context, params *cognitoidentityprovider.AdminDeleteUserInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminDeleteUserOutput, error) {
	return &cognitoidentityprovider.AdminDeleteUserOutput{}, nil
}

// newTestServer assembles the full HTTP stack over in-memory state. The
// sqlmock handle only backs the delete transaction; expectations are set by
// the tests that exercise it.
func newTestServer(t *testing.T, verifier *fakeVerifier) (*Server, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	logger := testLogger()
	rm := newMemRepoManager()
	cfg := &sc.Config{
		CognitoClientID:     "client",
		CognitoClientSecret: "secret",
		CognitoUserPoolID:   "pool",
	}

	us := services.NewUserService(db, rm, memIDP{}, cfg, logger)
	es := services.NewEnvironmentService(db, rm, memGateway{}, logger)

	return NewServer(":0", logger, verifier, us, es), mock
}
