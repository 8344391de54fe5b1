package contact

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cityadmin/portal/internal/model"
	"github.com/cityadmin/portal/internal/security"
)

type mockContactRepo struct {
	createFn func(ctx context.Context, msg *model.ContactMessage) error
}

func (m *mockContactRepo) Create(ctx context.Context, msg *model.ContactMessage) error {
	if m.createFn != nil {
		return m.createFn(ctx, msg)
	}
	return nil
}

// TestService_Submit_StoresSanitizedMessage は本文のHTMLが除去されて
// 保存されることを検証する。
func TestService_Submit_StoresSanitizedMessage(t *testing.T) {
	var stored *model.ContactMessage
	repo := &mockContactRepo{
		createFn: func(ctx context.Context, msg *model.ContactMessage) error {
			stored = msg
			return nil
		},
	}
	svc := NewService(repo, security.NewMessageSanitizer())

	msg, err := svc.Submit(context.Background(), SubmitInput{
		Name:    "Anna Schmidt",
		Email:   "anna@example.com",
		Subject: "転入届について",
		Body:    "<script>alert(1)</script>手続きの進捗を教えてください",
	})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if stored == nil {
		t.Fatal("expected message to be stored")
	}
	if strings.Contains(stored.Body, "<") || strings.Contains(stored.Body, "alert") {
		t.Errorf("body not sanitized: %q", stored.Body)
	}
	if !strings.Contains(stored.Body, "手続きの進捗") {
		t.Errorf("body text lost: %q", stored.Body)
	}
	if msg.ID == "" {
		t.Error("expected a generated message ID")
	}
}

// TestService_Submit_Validation は必須項目の検証を網羅的にテストする。
// 検証に失敗した場合はリポジトリが呼ばれないこと。
func TestService_Submit_Validation(t *testing.T) {
	tests := []struct {
		name  string
		input SubmitInput
	}{
		{"名前なし", SubmitInput{Email: "a@b.de", Body: "内容"}},
		{"メールなし", SubmitInput{Name: "A", Body: "内容"}},
		{"不正なメール", SubmitInput{Name: "A", Email: "not-an-email", Body: "内容"}},
		{"本文なし", SubmitInput{Name: "A", Email: "a@b.de"}},
		{"本文がタグのみ", SubmitInput{Name: "A", Email: "a@b.de", Body: "<script></script>"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			createCalled := false
			repo := &mockContactRepo{
				createFn: func(ctx context.Context, msg *model.ContactMessage) error {
					createCalled = true
					return nil
				},
			}
			svc := NewService(repo, security.NewMessageSanitizer())

			_, err := svc.Submit(context.Background(), tt.input)
			var apiErr *model.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected APIError, got %v", err)
			}
			if apiErr.Code != model.ErrCodeValidationFailed {
				t.Errorf("Code = %s, want %s", apiErr.Code, model.ErrCodeValidationFailed)
			}
			if createCalled {
				t.Error("repository should not be called on validation failure")
			}
		})
	}
}

// TestService_Submit_RepositoryError は保存失敗時にエラーが伝播することを検証する。
func TestService_Submit_RepositoryError(t *testing.T) {
	repo := &mockContactRepo{
		createFn: func(ctx context.Context, msg *model.ContactMessage) error {
			return errors.New("db down")
		},
	}
	svc := NewService(repo, security.NewMessageSanitizer())

	_, err := svc.Submit(context.Background(), SubmitInput{
		Name:  "A",
		Email: "a@b.de",
		Body:  "内容",
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "db down") {
		t.Errorf("error should wrap repository error: %v", err)
	}
}
