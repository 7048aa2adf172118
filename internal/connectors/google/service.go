package google

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
)

// ErrNoCredentials indicates no Drive credential was configured.
var ErrNoCredentials = errors.New("google: no credentials configured (set a credentials file, access token or API key)")

// ClientOptions returns API client options for the configured credential.
// Precedence: service account file, then access token, then API key.
func ClientOptions(ctx context.Context, cfg domain.DriveSettings) ([]option.ClientOption, error) {
	switch {
	case cfg.CredentialsFile != "":
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
		creds, err := googleoauth.CredentialsFromJSON(ctx, data, drive.DriveReadonlyScope)
		if err != nil {
			return nil, fmt.Errorf("parse credentials file: %w", err)
		}
		return []option.ClientOption{option.WithTokenSource(creds.TokenSource)}, nil

	case cfg.AccessToken != "":
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.AccessToken, TokenType: "Bearer"})
		return []option.ClientOption{option.WithTokenSource(ts)}, nil

	case cfg.APIKey != "":
		return []option.ClientOption{option.WithAPIKey(cfg.APIKey)}, nil

	default:
		return nil, ErrNoCredentials
	}
}

// NewDriveService creates a Google Drive API service from settings.
// Extra options are appended after the credential options.
func NewDriveService(ctx context.Context, cfg domain.DriveSettings, extra ...option.ClientOption) (*drive.Service, error) {
	opts, err := ClientOptions(ctx, cfg)
	if err != nil {
		return nil, err
	}
	opts = append(opts, extra...)
	return drive.NewService(ctx, opts...)
}
