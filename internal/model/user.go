// Package model はドメインモデルを定義する。
package model

import "time"

// Role はユーザーの権限種別を表す。
type Role string

const (
	// RoleAdmin は管理者（市職員）を表す。
	RoleAdmin Role = "admin"
	// RoleUser は一般ユーザー（市民）を表す。
	RoleUser Role = "user"
)

// IsValid はサポートされているロールかどうかを返す。
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleUser
}

// User はポータルの利用ユーザーを表す。
// GoogleIDは招待済みで未ログインのユーザーでは空になる。
type User struct {
	ID        string
	Email     string
	Name      string
	Picture   string
	GoogleID  string
	Role      Role
	CreatedAt time.Time
	LastLogin time.Time
}

// IsAdmin はユーザーが管理者権限を持つかどうかを返す。
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
