package models

import (
	"time"

	"github.com/google/uuid"
)

// Account is one authenticated identity on a third-party cloud-drive
// provider. The repositories store and return Credentials exactly as given;
// they neither encrypt nor decrypt it. SyncExecutor decrypts it with
// crypto.CredentialsCipher before building a provider client (a no-op when
// no key is configured); nothing in this module encrypts it on write.
type Account struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	DriveType    DriveType `gorm:"size:32;not null;index:idx_accounts_type_user"`
	RemoteUserID string    `gorm:"size:128;index:idx_accounts_type_user"`
	DisplayName  string    `gorm:"size:255"`

	// Credentials is the opaque provider-specific cookie string or token
	// bundle. With an encryption key configured, SyncExecutor reads it as a
	// base64 nonce-prefixed secretbox blob.
	Credentials string `gorm:"type:text;not null"`

	Quota        int64 `gorm:"default:0"`
	Used         int64 `gorm:"default:0"`
	IsVIP        bool  `gorm:"default:false"`
	IsSuperVIP   bool  `gorm:"default:false"`
	IsValid      bool  `gorm:"default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Account) TableName() string { return "drive_accounts" }
