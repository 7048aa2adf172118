// Package google provides shared infrastructure for the Google Drive file source.
//
// It contains:
//   - Client option construction from service-account files, static access
//     tokens or API keys (golang.org/x/oauth2)
//   - Error classification for common Google API errors (401, 403, 404, 429)
//   - A token-bucket rate limiter with backoff after 429 responses
//
// # Usage
//
//	svc, err := google.NewDriveService(ctx, settings.Drive)
//
// # OAuth2 Scopes
//
// Service accounts are requested with
// https://www.googleapis.com/auth/drive.readonly. The folder must be shared
// with the service account's email address.
package google
