package models

import "time"

const StatusActive = "active"

type Account struct {
	ID            uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	Email         string     `gorm:"uniqueIndex;not null"     json:"email"`
	PasswordHash  string     `gorm:"not null"                 json:"-"`
	Status        string     `gorm:"not null;default:active"  json:"status"`
	EmailVerified bool       `gorm:"not null;default:false"   json:"email_verified"`
	LastLogin     *time.Time `json:"last_login,omitempty"`
	Roles         []Role     `gorm:"many2many:role_assignments" json:"roles,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

type Role struct {
	ID   uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"uniqueIndex;not null"     json:"name"`
}

// StudentProfile and TeacherProfile carry the handful of fields the session
// token snapshots. The rest of the student/teacher records live with the
// management services, not here.
type StudentProfile struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	AccountID    uint   `gorm:"uniqueIndex;not null"     json:"account_id"`
	RollNumber   string `gorm:"not null"                 json:"roll_number"`
	DepartmentID uint   `json:"department_id"`
	ProgramID    uint   `json:"program_id"`
}

type TeacherProfile struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	AccountID    uint   `gorm:"uniqueIndex;not null"     json:"account_id"`
	DepartmentID uint   `json:"department_id"`
	Designation  string `json:"designation"`
}

type OneTimePasscode struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"          json:"id"`
	Email     string    `gorm:"index:idx_otp_email_type;not null" json:"email"`
	UserType  string    `gorm:"index:idx_otp_email_type;not null" json:"user_type"`
	CodeHash  string    `gorm:"not null"                          json:"-"`
	ExpiresAt time.Time `gorm:"not null"                          json:"expires_at"`
	IsUsed    bool      `gorm:"not null;default:false"            json:"is_used"`
	CreatedAt time.Time `json:"created_at"`
}
