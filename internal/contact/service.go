// Package contact はお問い合わせフォームの受付機能を提供する。
package contact

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/cityadmin/portal/internal/model"
	"github.com/cityadmin/portal/internal/repository"
	"github.com/cityadmin/portal/internal/security"
)

// Service はお問い合わせメッセージの検証・サニタイズ・保存を行う。
type Service struct {
	contactRepo repository.ContactRepository
	sanitizer   security.MessageSanitizerService
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(contactRepo repository.ContactRepository, sanitizer security.MessageSanitizerService) *Service {
	return &Service{
		contactRepo: contactRepo,
		sanitizer:   sanitizer,
	}
}

// SubmitInput はお問い合わせフォームの入力を表す。
type SubmitInput struct {
	Name    string
	Email   string
	Subject string
	Body    string
}

// Submit はお問い合わせメッセージを受け付ける。
// 名前・メールアドレス・本文は必須。本文と件名はHTMLタグを除去してから保存する。
// 検証に失敗した場合はメッセージを保存しない。
func (s *Service) Submit(ctx context.Context, input SubmitInput) (*model.ContactMessage, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.TrimSpace(input.Email)

	if name == "" {
		return nil, model.NewValidationError("名前は必須です")
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, model.NewValidationError("有効なメールアドレスを入力してください")
	}

	body := s.sanitizer.Sanitize(input.Body)
	if body == "" {
		return nil, model.NewValidationError("お問い合わせ内容は必須です")
	}
	subject := s.sanitizer.Sanitize(input.Subject)

	msg := &model.ContactMessage{
		ID:      uuid.NewString(),
		Name:    name,
		Email:   email,
		Subject: subject,
		Body:    body,
	}
	if err := s.contactRepo.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to store contact message: %w", err)
	}

	slog.Info("contact message received",
		"message_id", msg.ID,
		"email", email,
	)
	return msg, nil
}
