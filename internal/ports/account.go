package ports

import "context"

// AccountPort provisions and updates user accounts.
type AccountPort interface {
	// EnsureDeviceAccount returns the account behind deviceID, creating it
	// with username when needed. created reports whether a new account was made.
	EnsureDeviceAccount(ctx context.Context, deviceID, username string) (userID, actualUsername string, created bool, err error)

	// UpdateProfile updates account profile fields for the given user.
	// userID identifies the account to update; username/displayName are applied as provided.
	// Returns an error if the profile update fails.
	// metadata is stored on the account when non-nil.
	UpdateProfile(ctx context.Context, userID, username, displayName string, metadata map[string]interface{}) error
}
