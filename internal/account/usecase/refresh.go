package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/otpgate/otpgate/internal/account/entity"
	"github.com/otpgate/otpgate/internal/pkg/goerror"
)

type RefreshInput struct {
	RefreshToken string `validate:"required"`
}

type RefreshOutput struct {
	AccessToken  string
	RefreshToken string
}

// Refresh exchanges a live refresh token for a new access/refresh pair.
// Using an already-rotated token is treated as theft and revokes every
// live token for the account.
func (s *Usecase) Refresh(ctx context.Context, in RefreshInput) (*RefreshOutput, error) {
	ctx, span := s.startSpan(ctx, "Refresh")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	oldTokenHash, err := s.hmac.Hash(in.RefreshToken)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash old refresh token", "error", err)
		return nil, goerror.NewServer(err)
	}

	rt, err := s.repoDB.GetRefreshToken(ctx, string(oldTokenHash))
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "refresh token not found")
		return nil, goerror.NewBusiness("invalid or expired refresh token", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get refresh token", "error", err)
		return nil, goerror.NewServer(err)
	}

	if rt.Revoked {
		if rt.ReplacedByID != nil {
			if err := s.repoDB.RevokeAllRefreshTokens(ctx, rt.AccountID); err != nil {
				slog.ErrorContext(ctx, "failed to repo revoke all refresh tokens", "account_id", rt.AccountID, "error", err)
			}

			slog.WarnContext(ctx, "SECURITY: refresh token reuse detected", "account_id", rt.AccountID)
			return nil, goerror.NewBusiness("token reuse detected, please sign in again", goerror.CodeForbidden)
		}

		slog.WarnContext(ctx, "refresh token is revoked", "refresh_token_id", rt.ID)
		return nil, goerror.NewBusiness("invalid or expired refresh token", goerror.CodeUnauthorized)
	}

	if s.clock.Now().After(rt.ExpiresAt) {
		slog.WarnContext(ctx, "refresh token is expired")
		return nil, goerror.NewBusiness("invalid or expired refresh token", goerror.CodeUnauthorized)
	}

	accessToken, err := s.jwt.Generate(rt.AccountID, rt.Contact)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate access jwt token", "account_id", rt.AccountID, "error", err)
		return nil, goerror.NewServer(err)
	}

	newRefreshToken := s.oid.Generate()
	newTokenHash, err := s.hmac.Hash(newRefreshToken)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash new refresh token", "error", err)
		return nil, goerror.NewServer(err)
	}

	err = s.repoDB.RotateRefreshToken(ctx, entity.RotateRefreshToken{
		NewID:        int64(s.uid.Generate()),
		OldID:        rt.ID,
		AccountID:    rt.AccountID,
		NewTokenHash: string(newTokenHash),
		NewExpiresAt: s.clock.Now().Add(s.refreshTokenTTL()),
	})
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "refresh token already rotated or revoked", "refresh_token_id", rt.ID)
		return nil, goerror.NewBusiness("invalid or expired refresh token", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo rotate refresh token", "error", err)
		return nil, goerror.NewServer(err)
	}

	return &RefreshOutput{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
	}, nil
}
