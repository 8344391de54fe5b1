// Package auth はGoogle認証情報の検証とセッショントークンの発行を提供する。
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cityadmin/portal/internal/model"
	"github.com/cityadmin/portal/internal/repository"
)

// CredentialVerifier は外部IdPの認証情報を検証するインターフェース。
type CredentialVerifier interface {
	// Verify はcredentialを検証し、ユーザー情報を返す。
	Verify(ctx context.Context, credential string) (*GoogleUserInfo, error)
}

// SessionTokenIssuer はセッショントークンの発行インターフェース。
type SessionTokenIssuer interface {
	Issue(user *model.User) (string, error)
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	verifier CredentialVerifier
	issuer   SessionTokenIssuer
	userRepo repository.UserRepository
	now      func() time.Time
}

// NewService はServiceを生成する。
func NewService(verifier CredentialVerifier, issuer SessionTokenIssuer, userRepo repository.UserRepository) *Service {
	return &Service{
		verifier: verifier,
		issuer:   issuer,
		userRepo: userRepo,
		now:      time.Now,
	}
}

// ExchangeCredential はGoogle認証情報をセッショントークンに交換する。
//
// ユーザー解決の優先順位:
//  1. google_idで既存ユーザーを検索（通常の再ログイン）
//  2. メールアドレスで検索（招待で事前登録済みのユーザーの初回ログイン。
//     招待時に設定されたロールを維持したままgoogle_idを紐付ける）
//  3. どちらもなければrole=userで新規作成
//
// 検証失敗時はAPIError（INVALID_CREDENTIAL）を返し、ユーザーは作成しない。
func (s *Service) ExchangeCredential(ctx context.Context, credential string) (string, *model.User, error) {
	info, err := s.verifier.Verify(ctx, credential)
	if err != nil {
		slog.Warn("google credential verification failed", slog.String("error", err.Error()))
		return "", nil, model.NewInvalidCredentialError()
	}

	user, err := s.resolveUser(ctx, info)
	if err != nil {
		return "", nil, err
	}

	token, err := s.issuer.Issue(user)
	if err != nil {
		return "", nil, fmt.Errorf("failed to issue session token: %w", err)
	}

	slog.Info("user logged in",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)

	return token, user, nil
}

// resolveUser は検証済みのGoogleユーザー情報からUserレコードを解決する。
func (s *Service) resolveUser(ctx context.Context, info *GoogleUserInfo) (*model.User, error) {
	now := s.now()

	// 1. google_idで既存ユーザーを検索
	user, err := s.userRepo.FindByGoogleID(ctx, info.GoogleID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by google ID: %w", err)
	}
	if user != nil {
		user.Name = info.Name
		user.Picture = info.Picture
		user.LastLogin = now
		if err := s.userRepo.UpdateLoginIdentity(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to update user login: %w", err)
		}
		return user, nil
	}

	// 2. メールアドレスで検索（招待済みユーザーの初回ログイン）
	user, err = s.userRepo.FindByEmail(ctx, info.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	if user != nil {
		user.GoogleID = info.GoogleID
		user.Name = info.Name
		user.Picture = info.Picture
		user.LastLogin = now
		if err := s.userRepo.UpdateLoginIdentity(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to link google identity: %w", err)
		}
		slog.Info("invited user completed first login",
			slog.String("user_id", user.ID),
			slog.String("role", string(user.Role)),
		)
		return user, nil
	}

	// 3. 新規ユーザーを作成
	user = &model.User{
		ID:        uuid.New().String(),
		Email:     info.Email,
		Name:      info.Name,
		Picture:   info.Picture,
		GoogleID:  info.GoogleID,
		Role:      model.RoleUser,
		CreatedAt: now,
		LastLogin: now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("new user created",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)
	return user, nil
}
