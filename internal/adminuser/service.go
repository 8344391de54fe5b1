// Package adminuser は管理者によるユーザー管理のドメインロジックを提供する。
// 一覧取得、招待、ロール変更、削除を扱う。
package adminuser

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cityadmin/portal/internal/model"
	"github.com/cityadmin/portal/internal/repository"
)

// Service はユーザー管理のサービス層。
type Service struct {
	userRepo repository.UserRepository
	now      func() time.Time
}

// NewService はServiceを生成する。
func NewService(userRepo repository.UserRepository) *Service {
	return &Service{
		userRepo: userRepo,
		now:      time.Now,
	}
}

// List は全ユーザーを作成日時の降順で返す。
func (s *Service) List(ctx context.Context) ([]model.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// UpdateRole は指定ユーザーのロールを変更する。
func (s *Service) UpdateRole(ctx context.Context, userID string, role model.Role) error {
	if !role.IsValid() {
		return model.NewInvalidRoleError(string(role))
	}

	if err := s.userRepo.UpdateRole(ctx, userID, role); err != nil {
		return err
	}

	slog.Info("user role updated",
		slog.String("user_id", userID),
		slog.String("role", string(role)),
	)
	return nil
}

// Invite はユーザーを事前登録する。初回のGoogleログイン時に
// 招待時のロールが引き継がれる。同じメールアドレスのユーザーが
// 既に存在する場合はロールと氏名を更新する。
func (s *Service) Invite(ctx context.Context, name, email string, role model.Role) (*model.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, model.NewValidationError("メールアドレスは必須です")
	}
	if !role.IsValid() {
		return nil, model.NewInvalidRoleError(string(role))
	}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		if err := s.userRepo.UpdateRole(ctx, existing.ID, role); err != nil {
			return nil, fmt.Errorf("failed to update existing user role: %w", err)
		}
		existing.Role = role
		slog.Info("existing user role updated by invite",
			slog.String("user_id", existing.ID),
			slog.String("role", string(role)),
		)
		return existing, nil
	}

	user := &model.User{
		ID:        uuid.New().String(),
		Email:     email,
		Name:      strings.TrimSpace(name),
		Role:      role,
		CreatedAt: s.now(),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create invited user: %w", err)
	}

	slog.Info("user invited",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
		slog.String("role", string(role)),
	)
	return user, nil
}

// Delete は指定ユーザーを削除する。
func (s *Service) Delete(ctx context.Context, userID string) error {
	if err := s.userRepo.DeleteByID(ctx, userID); err != nil {
		return err
	}

	slog.Info("user deleted", slog.String("user_id", userID))
	return nil
}
