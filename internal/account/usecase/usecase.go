package usecase

import (
	"context"

	"github.com/otpgate/otpgate/internal/account/entity"
	"github.com/otpgate/otpgate/internal/pkg/clock"
	"github.com/otpgate/otpgate/internal/pkg/config"
	"github.com/otpgate/otpgate/internal/pkg/hash"
	"github.com/otpgate/otpgate/internal/pkg/instrument"
	"github.com/otpgate/otpgate/internal/pkg/jwt"
	"github.com/otpgate/otpgate/internal/pkg/uid"
	"github.com/otpgate/otpgate/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

type repoDB interface {
	GetByContact(ctx context.Context, contact string) (*entity.Account, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, in entity.NewAccount) error

	InsertRefreshToken(ctx context.Context, in entity.NewRefreshToken) error
	GetRefreshToken(ctx context.Context, tokenHash string) (*entity.RefreshToken, error)
	RotateRefreshToken(ctx context.Context, in entity.RotateRefreshToken) error
	RevokeAllRefreshTokens(ctx context.Context, accountID int64) error
}

// passcodeVerifier confirms a contact/code pair. Failures carry the
// machine-readable result codes of the verification flow.
type passcodeVerifier interface {
	VerifyPasscode(ctx context.Context, contact, code string) error
}

type Usecase struct {
	repoDB    repoDB
	verifier  passcodeVerifier
	cfg       config.Config
	uid       uid.NumberID
	oid       uid.StringID
	hmac      hash.Hash
	argon2id  hash.Hash
	jwt       jwt.JWT
	clock     clock.Clocker
	validator validator.Validator
	ins       instrument.Instrumentation
}

type Dependency struct {
	RepoDB     repoDB
	Verifier   passcodeVerifier
	Config     config.Config
	UID        uid.NumberID
	OID        uid.StringID
	HMAC       hash.Hash
	Argon2ID   hash.Hash
	JWT        jwt.JWT
	Clock      clock.Clocker
	Validator  validator.Validator
	Instrument instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:    dep.RepoDB,
		verifier:  dep.Verifier,
		cfg:       dep.Config,
		uid:       dep.UID,
		oid:       dep.OID,
		hmac:      dep.HMAC,
		argon2id:  dep.Argon2ID,
		jwt:       dep.JWT,
		clock:     dep.Clock,
		validator: dep.Validator,
		ins:       dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("account.usecase").Start(ctx, name)
}
