package models

import "time"

// User is an account on either node. On the cloud node LocalUserID links the
// account to the user id that local node sends in sync requests. On the
// local node CloudToken holds the bearer credential for the cloud.
type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	LocalUserID  string     `json:"local_user_id,omitempty"`
	CloudToken   string     `json:"-"`
	ImageCount   int64      `json:"image_count"`
	StorageBytes int64      `json:"storage_bytes"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	LastSyncAt   *time.Time `json:"last_sync_at,omitempty"`
}
