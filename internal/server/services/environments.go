// Package services holds the business services: the environment aggregate
// lifecycle (with ownership checks) and the user account lifecycle.
package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/opensource-kemini/kemini-backend/internal/common"
	"github.com/opensource-kemini/kemini-backend/internal/dbx"
	"github.com/opensource-kemini/kemini-backend/internal/logging"
	"github.com/opensource-kemini/kemini-backend/internal/server/models"
	"github.com/opensource-kemini/kemini-backend/internal/server/repositories/repomanager"
	"github.com/opensource-kemini/kemini-backend/internal/server/storage"
)

// EnvironmentAggregate is one environment together with its files, each file
// carrying a retrieval URL derived on demand from its object key.
type EnvironmentAggregate struct {
	ID     int64
	Name   string
	UserID int64
	Files  []*EnvironmentFileView
}

// EnvironmentFileView is the read model of one uploaded file.
type EnvironmentFileView struct {
	ID       int64
	FileType string
	FileName string
	FileURL  string
}

// UploadTicket is the result of a RequestUpload call: where the client should
// PUT the payload, and where the payload will be retrievable afterwards.
type UploadTicket struct {
	UploadURL string
	FileURL   string
}

// EnvironmentService orchestrates creation, file attachment, renaming and
// cascading deletion of the environment aggregate. Every operation that
// touches an existing environment goes through the ownership check first.
type EnvironmentService struct {
	db      *sql.DB
	repos   repomanager.RepositoryManager
	gateway storage.Gateway
	logger  logging.Logger
}

func NewEnvironmentService(db *sql.DB, repos repomanager.RepositoryManager, gateway storage.Gateway, logger logging.Logger) *EnvironmentService {
	return &EnvironmentService{
		db:      db,
		repos:   repos,
		gateway: gateway,
		logger:  logger.With("module", "environment_service"),
	}
}

// ObjectKey derives the storage path for a file deterministically from its
// owning chain. Repeated requests for the same logical file yield the same key.
func ObjectKey(userID, environmentID int64, fileType, fileName string) string {
	return fmt.Sprintf("users/%d/%d/%s/%s", userID, environmentID, fileType, fileName)
}

// authorize resolves the calling principal's user record and the target
// environment, and verifies the full ownership chain. Unknown user or unknown
// environment yield ErrNotFound; an environment owned by someone else yields
// ErrForbidden, never ErrNotFound.
func (s *EnvironmentService) authorize(ctx context.Context, email string, environmentID int64) (*models.User, *models.Environment, error) {
	user, err := s.repos.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		return nil, nil, err
	}

	env, err := s.repos.Environments(s.db).GetByID(ctx, environmentID)
	if err != nil {
		return nil, nil, err
	}

	if env.UserID != user.ID {
		return nil, nil, common.ErrForbidden
	}

	return user, env, nil
}

// aggregate builds the read model for one environment, deriving a retrieval
// URL for every file from its object key.
func (s *EnvironmentService) aggregate(ctx context.Context, env *models.Environment) (*EnvironmentAggregate, error) {
	files, err := s.repos.EnvironmentFiles(s.db).ListByEnvironmentID(ctx, env.ID)
	if err != nil {
		return nil, err
	}

	views := make([]*EnvironmentFileView, 0, len(files))
	for _, f := range files {
		views = append(views, &EnvironmentFileView{
			ID:       f.ID,
			FileType: f.FileType,
			FileName: f.OriginalFileName,
			FileURL:  s.gateway.PublicURL(f.ObjectKey),
		})
	}

	return &EnvironmentAggregate{ID: env.ID, Name: env.Name, UserID: env.UserID, Files: views}, nil
}

// Create makes a new environment for the caller with an empty file list.
func (s *EnvironmentService) Create(ctx context.Context, email string, name string) (*EnvironmentAggregate, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", common.ErrValidation)
	}

	user, err := s.repos.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	env, err := s.repos.Environments(s.db).Create(ctx, &models.Environment{Name: name, UserID: user.ID})
	if err != nil {
		return nil, err
	}

	return &EnvironmentAggregate{ID: env.ID, Name: env.Name, UserID: env.UserID, Files: []*EnvironmentFileView{}}, nil
}

// RequestUpload issues a presigned upload URL for a new file and records the
// file optimistically. The relational row exists before the client uploads
// anything; a client that abandons the upload leaves a row whose URL serves
// no payload yet.
func (s *EnvironmentService) RequestUpload(ctx context.Context, email string, environmentID int64, fileType, fileName string) (*UploadTicket, error) {
	if fileType == "" || fileName == "" {
		return nil, fmt.Errorf("%w: fileType and fileName are required", common.ErrValidation)
	}

	user, _, err := s.authorize(ctx, email, environmentID)
	if err != nil {
		return nil, err
	}

	key := ObjectKey(user.ID, environmentID, fileType, fileName)

	uploadURL, err := s.gateway.PresignUpload(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: presign upload: %v", common.ErrUpstream, err)
	}

	_, err = s.repos.EnvironmentFiles(s.db).Create(ctx, &models.EnvironmentFile{
		FileType:         fileType,
		OriginalFileName: fileName,
		ObjectKey:        key,
		EnvironmentID:    environmentID,
	})
	if err != nil {
		return nil, err
	}

	return &UploadTicket{UploadURL: uploadURL, FileURL: s.gateway.PublicURL(key)}, nil
}

// List returns all of the caller's environments, newest first.
func (s *EnvironmentService) List(ctx context.Context, email string) ([]*EnvironmentAggregate, error) {
	user, err := s.repos.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	envs, err := s.repos.Environments(s.db).ListByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	result := make([]*EnvironmentAggregate, 0, len(envs))
	for _, env := range envs {
		agg, err := s.aggregate(ctx, env)
		if err != nil {
			return nil, err
		}
		result = append(result, agg)
	}
	return result, nil
}

// Get returns one environment with its files, after the ownership check.
func (s *EnvironmentService) Get(ctx context.Context, email string, environmentID int64) (*EnvironmentAggregate, error) {
	_, env, err := s.authorize(ctx, email, environmentID)
	if err != nil {
		return nil, err
	}
	return s.aggregate(ctx, env)
}

// Rename updates the environment's name and returns the updated aggregate.
func (s *EnvironmentService) Rename(ctx context.Context, email string, environmentID int64, name string) (*EnvironmentAggregate, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", common.ErrValidation)
	}

	_, env, err := s.authorize(ctx, email, environmentID)
	if err != nil {
		return nil, err
	}

	if err := s.repos.Environments(s.db).UpdateName(ctx, environmentID, name); err != nil {
		return nil, err
	}
	env.Name = name

	return s.aggregate(ctx, env)
}

// Delete removes the environment and all of its files. Blob deletions are
// best effort: a storage failure is logged and never blocks the relational
// deletion, which runs as a single transaction. Relational state is
// authoritative for ownership and listing, so an orphaned blob is preferable
// to a dangling row.
func (s *EnvironmentService) Delete(ctx context.Context, email string, environmentID int64) error {
	_, _, err := s.authorize(ctx, email, environmentID)
	if err != nil {
		return err
	}

	files, err := s.repos.EnvironmentFiles(s.db).ListByEnvironmentID(ctx, environmentID)
	if err != nil {
		return err
	}

	for _, f := range files {
		if err := s.gateway.Delete(ctx, f.ObjectKey); err != nil {
			s.logger.Warn(ctx, "blob delete failed, continuing",
				"object_key", f.ObjectKey, "error", err.Error())
		}
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repos.EnvironmentFiles(tx).DeleteByEnvironmentID(ctx, environmentID); err != nil {
			return err
		}
		return s.repos.Environments(tx).Delete(ctx, environmentID)
	})
}
