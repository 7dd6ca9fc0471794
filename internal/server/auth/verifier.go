// Package auth implements bearer-token handling for the server: the online
// token check against the identity provider and local claims extraction.
package auth

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"

	"github.com/opensource-kemini/kemini-backend/internal/logging"
)

// TokenVerifier answers whether a bearer token is currently usable. An
// implementation must check live state (revocation, expiry) with the issuing
// provider, not just the token's own encoding.
type TokenVerifier interface {
	Verify(ctx context.Context, accessToken string) bool
}

// getUserAPI is the single Cognito operation the verifier consumes.
// Wrapping it in an interface keeps the verifier testable without a real pool.
type getUserAPI interface {
	GetUser(ctx context.Context, params *cognitoidentityprovider.GetUserInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.GetUserOutput, error)
}

// CognitoVerifier validates access tokens with a live GetUser round trip.
// There is no offline fallback: if the provider is unreachable the token is
// treated as invalid and the condition is logged.
type CognitoVerifier struct {
	client getUserAPI
	logger logging.Logger
}

func NewCognitoVerifier(client getUserAPI, logger logging.Logger) *CognitoVerifier {
	return &CognitoVerifier{
		client: client,
		logger: logger.With("module", "cognito_verifier"),
	}
}

// NewCognitoClient builds a Cognito identity provider client for the region.
func NewCognitoClient(ctx context.Context, region string) (*cognitoidentityprovider.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return cognitoidentityprovider.NewFromConfig(cfg), nil
}

// Verify performs the online check. An explicit NotAuthorizedException means
// the token is revoked or expired; any other failure is logged and also
// reported as invalid.
func (v *CognitoVerifier) Verify(ctx context.Context, accessToken string) bool {
	_, err := v.client.GetUser(ctx, &cognitoidentityprovider.GetUserInput{
		AccessToken: aws.String(accessToken),
	})
	if err == nil {
		return true
	}

	var notAuthorized *types.NotAuthorizedException
	if errors.As(err, &notAuthorized) {
		return false
	}

	v.logger.Error(ctx, "online token check failed", "error", err.Error())
	return false
}
