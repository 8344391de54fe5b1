package model

import "time"

// ContactMessage は問い合わせフォームから送信されたメッセージを表す。
// 本文は保存前にサニタイズ済みであることを前提とする。
type ContactMessage struct {
	ID        string
	Name      string
	Email     string
	Subject   string
	Body      string
	CreatedAt time.Time
}
