package user

import "time"

type User struct {
	ID                  int64      `gorm:"primaryKey"`
	Username            string     `gorm:"column:username;uniqueIndex;not null"`
	PasswordHash        string     `gorm:"column:password_hash;not null"`
	Salt                string     `gorm:"column:salt;not null"`
	FullName            string     `gorm:"column:full_name;not null"`
	Email               string     `gorm:"column:email"`
	Role                string     `gorm:"column:role;not null"`
	Department          string     `gorm:"column:department"`
	IsActive            bool       `gorm:"column:is_active;default:true"`
	FailedLoginAttempts int        `gorm:"column:failed_login_attempts;default:0"`
	AccountLocked       bool       `gorm:"column:account_locked;default:false"`
	LastLogin           *time.Time `gorm:"column:last_login"`
	Notes               string     `gorm:"column:notes"`
	CreatedAt           time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}

type Session struct {
	Token     string    `gorm:"column:session_id;primaryKey"`
	UserID    int64     `gorm:"column:user_id;not null;index"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null"`
	IPAddress string    `gorm:"column:ip_address"`
	UserAgent string    `gorm:"column:user_agent"`
	IsActive  bool      `gorm:"column:is_active;default:true"`
}

func (Session) TableName() string {
	return "sessions"
}
