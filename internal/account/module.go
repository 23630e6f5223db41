// Package account wires passcode-based sign-in: account establishment,
// JWT issuance, and refresh token rotation.
package account

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/otpgate/otpgate/internal/account/inbound"
	"github.com/otpgate/otpgate/internal/account/outbound/db"
	"github.com/otpgate/otpgate/internal/account/usecase"
	"github.com/otpgate/otpgate/internal/pkg/clock"
	"github.com/otpgate/otpgate/internal/pkg/config"
	"github.com/otpgate/otpgate/internal/pkg/hash"
	"github.com/otpgate/otpgate/internal/pkg/instrument"
	"github.com/otpgate/otpgate/internal/pkg/jwt"
	"github.com/otpgate/otpgate/internal/pkg/router"
	"github.com/otpgate/otpgate/internal/pkg/uid"
	"github.com/otpgate/otpgate/internal/pkg/validator"
)

// Verifier confirms a contact/code pair against the passcode store.
type Verifier interface {
	VerifyPasscode(ctx context.Context, contact, code string) error
}

type Dependency struct {
	DBConn     *pgxpool.Pool              `validate:"required"`
	Verifier   Verifier                   `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	OID        uid.StringID               `validate:"required"`
	HMAC       hash.Hash                  `validate:"required"`
	Argon2ID   hash.Hash                  `validate:"required"`
	JWT        jwt.JWT                    `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	uc := usecase.New(usecase.Dependency{
		RepoDB:     db.NewDB(dep.DBConn, dep.Instrument),
		Verifier:   dep.Verifier,
		Config:     dep.Config,
		UID:        dep.UID,
		OID:        dep.OID,
		HMAC:       dep.HMAC,
		Argon2ID:   dep.Argon2ID,
		JWT:        dep.JWT,
		Clock:      dep.Clock,
		Validator:  dep.Validator,
		Instrument: dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}
