package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/otpgate/otpgate/internal/account/entity"
	"github.com/otpgate/otpgate/internal/pkg/goerror"
)

// issueTokens mints an access JWT and an opaque refresh token for the
// account, storing only the refresh token's HMAC.
func (s *Usecase) issueTokens(ctx context.Context, acc *entity.Account) (accessToken, refreshToken string, err error) {
	accessToken, err = s.jwt.Generate(acc.ID, acc.Contact)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate access jwt token", "account_id", acc.ID, "error", err)
		return "", "", goerror.NewServer(err)
	}

	refreshToken = s.oid.Generate()
	refreshTokenHash, err := s.hmac.Hash(refreshToken)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash refresh token", "error", err)
		return "", "", goerror.NewServer(err)
	}

	if err = s.repoDB.InsertRefreshToken(ctx, entity.NewRefreshToken{
		ID:        int64(s.uid.Generate()),
		AccountID: acc.ID,
		TokenHash: string(refreshTokenHash),
		ExpiresAt: s.clock.Now().Add(s.refreshTokenTTL()),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to repo insert refresh token", "account_id", acc.ID, "error", err)
		return "", "", goerror.NewServer(err)
	}

	return accessToken, refreshToken, nil
}

func (s *Usecase) refreshTokenTTL() time.Duration {
	ttl := s.cfg.GetDay("modules.account.refresh_token_ttl_days")
	if ttl == 0 {
		ttl = 30 * 24 * time.Hour
	}
	return ttl
}
