package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"

	"github.com/opensource-kemini/kemini-backend/internal/common"
	"github.com/opensource-kemini/kemini-backend/internal/logging"
	"github.com/opensource-kemini/kemini-backend/internal/server/auth"
	sc "github.com/opensource-kemini/kemini-backend/internal/server/config"
	"github.com/opensource-kemini/kemini-backend/internal/server/models"
	"github.com/opensource-kemini/kemini-backend/internal/server/repositories/repomanager"
)

// identityAdminAPI is the subset of Cognito operations the user service
// consumes. Wrapping the client keeps the service testable.
type identityAdminAPI interface {
	SignUp(ctx context.Context, params *cognitoidentityprovider.SignUpInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.SignUpOutput, error)
	AdminConfirmSignUp(ctx context.Context, params *cognitoidentityprovider.AdminConfirmSignUpInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminConfirmSignUpOutput, error)
	AdminUpdateUserAttributes(ctx context.Context, params *cognitoidentityprovider.AdminUpdateUserAttributesInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminUpdateUserAttributesOutput, error)
	AdminDeleteUser(ctx context.Context, params *cognitoidentityprovider.AdminDeleteUserInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.AdminDeleteUserOutput, error)
}

// UserService keeps the local user table and the identity provider's account
// records in step. Credentials themselves never touch this service beyond the
// sign-up pass-through.
type UserService struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	idp    identityAdminAPI
	config *sc.Config
	logger logging.Logger
}

func NewUserService(db *sql.DB, repos repomanager.RepositoryManager, idp identityAdminAPI, config *sc.Config, logger logging.Logger) *UserService {
	return &UserService{
		db:     db,
		repos:  repos,
		idp:    idp,
		config: config,
		logger: logger.With("module", "user_service"),
	}
}

// NormalizePhoneNumber converts a local Korean number to the +82 international
// format the identity provider expects. Hyphens are stripped; numbers already
// in +82 form pass through; anything else is left for the provider to reject.
func NormalizePhoneNumber(phoneNumber string) string {
	if phoneNumber == "" {
		return phoneNumber
	}

	digits := strings.ReplaceAll(phoneNumber, "-", "")

	if strings.HasPrefix(digits, "+82") {
		return digits
	}
	if strings.HasPrefix(digits, "01") {
		return "+82" + digits[1:]
	}
	return digits
}

// SignUp registers the account with the identity provider, confirms it, and
// creates the local user row. A provider failure aborts before any local row
// is written.
func (s *UserService) SignUp(ctx context.Context, email, password, name, phoneNumber string) (*models.User, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", common.ErrValidation)
	}

	normalizedPhone := NormalizePhoneNumber(phoneNumber)

	secretHash := auth.SecretHash(s.config.CognitoClientID, s.config.CognitoClientSecret, email)

	_, err := s.idp.SignUp(ctx, &cognitoidentityprovider.SignUpInput{
		ClientId:   aws.String(s.config.CognitoClientID),
		SecretHash: aws.String(secretHash),
		Username:   aws.String(email),
		Password:   aws.String(password),
		UserAttributes: []types.AttributeType{
			{Name: aws.String("email"), Value: aws.String(email)},
			{Name: aws.String("name"), Value: aws.String(name)},
			{Name: aws.String("phone_number"), Value: aws.String(normalizedPhone)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: sign up: %v", common.ErrUpstream, err)
	}

	_, err = s.idp.AdminConfirmSignUp(ctx, &cognitoidentityprovider.AdminConfirmSignUpInput{
		UserPoolId: aws.String(s.config.CognitoUserPoolID),
		Username:   aws.String(email),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: confirm sign up: %v", common.ErrUpstream, err)
	}

	user := &models.User{
		Email:       email,
		Name:        name,
		PhoneNumber: normalizedPhone,
		Status:      models.UserStatusConfirmed,
	}
	return s.repos.Users(s.db).Create(ctx, user)
}

// GetInfo returns the profile of the authenticated user.
func (s *UserService) GetInfo(ctx context.Context, email string) (*models.User, error) {
	return s.repos.Users(s.db).GetByEmail(ctx, email)
}

// Update patches name and phone number on the identity provider's account
// attributes first, then mirrors the change to the local row. A provider
// failure leaves the local row untouched.
func (s *UserService) Update(ctx context.Context, email, name, phoneNumber string) (*models.User, error) {
	user, err := s.repos.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if name != "" {
		user.Name = name
	}
	if phoneNumber != "" {
		user.PhoneNumber = NormalizePhoneNumber(phoneNumber)
	}

	attrs := []types.AttributeType{
		{Name: aws.String("name"), Value: aws.String(user.Name)},
		{Name: aws.String("phone_number"), Value: aws.String(user.PhoneNumber)},
	}
	_, err = s.idp.AdminUpdateUserAttributes(ctx, &cognitoidentityprovider.AdminUpdateUserAttributesInput{
		UserPoolId:     aws.String(s.config.CognitoUserPoolID),
		Username:       aws.String(email),
		UserAttributes: attrs,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: update attributes: %v", common.ErrUpstream, err)
	}

	if err := s.repos.Users(s.db).UpdateDetails(ctx, email, user.Name, user.PhoneNumber); err != nil {
		return nil, err
	}

	return user, nil
}

// Delete removes the account. The provider-side deletion is best effort: if
// the provider no longer knows the user, the local row is deleted anyway.
func (s *UserService) Delete(ctx context.Context, email string) error {
	_, err := s.idp.AdminDeleteUser(ctx, &cognitoidentityprovider.AdminDeleteUserInput{
		UserPoolId: aws.String(s.config.CognitoUserPoolID),
		Username:   aws.String(email),
	})
	if err != nil {
		s.logger.Warn(ctx, "provider-side user delete failed, continuing",
			"email", email, "error", err.Error())
	}

	return s.repos.Users(s.db).DeleteByEmail(ctx, email)
}
