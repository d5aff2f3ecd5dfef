package user

import "time"

type User struct {
	ID           string     `gorm:"primaryKey;type:varchar(36)"`
	Username     string     `gorm:"column:username;uniqueIndex;not null"`
	Email        string     `gorm:"column:email;uniqueIndex;not null"`
	Phone        *string    `gorm:"column:phone;uniqueIndex"`
	PasswordHash string     `gorm:"column:password_hash;not null"`
	FirstName    string     `gorm:"column:first_name;not null"`
	LastName     string     `gorm:"column:last_name;not null"`
	Role         string     `gorm:"column:role;not null;default:user"`
	CompanyID    *string    `gorm:"column:company_id;type:varchar(36);index"`
	Active       bool       `gorm:"column:active;not null;default:false"`
	LastActiveAt *time.Time `gorm:"column:last_active_at;index"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}
