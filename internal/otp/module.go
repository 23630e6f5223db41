// Package otp wires the one-time passcode module: issuance, delivery,
// verification, and lifecycle event publishing.
package otp

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/otpgate/otpgate/internal/otp/entity"
	"github.com/otpgate/otpgate/internal/otp/inbound"
	"github.com/otpgate/otpgate/internal/otp/outbound/cache"
	"github.com/otpgate/otpgate/internal/otp/outbound/db"
	"github.com/otpgate/otpgate/internal/otp/outbound/delivery"
	"github.com/otpgate/otpgate/internal/otp/outbound/mq"
	"github.com/otpgate/otpgate/internal/otp/usecase"
	"github.com/otpgate/otpgate/internal/pkg/clock"
	"github.com/otpgate/otpgate/internal/pkg/config"
	"github.com/otpgate/otpgate/internal/pkg/hash"
	"github.com/otpgate/otpgate/internal/pkg/instrument"
	"github.com/otpgate/otpgate/internal/pkg/mail"
	"github.com/otpgate/otpgate/internal/pkg/messaging"
	"github.com/otpgate/otpgate/internal/pkg/passcode"
	"github.com/otpgate/otpgate/internal/pkg/router"
	"github.com/otpgate/otpgate/internal/pkg/smsgate"
	"github.com/otpgate/otpgate/internal/pkg/uid"
	"github.com/otpgate/otpgate/internal/pkg/validator"
	"github.com/redis/go-redis/v9"
)

type Dependency struct {
	DBConn     *pgxpool.Pool              `validate:"required"`
	CacheConn  *redis.Client              `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Messaging  messaging.Messaging        `validate:"required"`
	Mail       mail.Mail                  `validate:"required"`
	SMSGate    smsgate.Gateway            `validate:"required"`
	Passcode   passcode.Factory           `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	Bcrypt     hash.Hash                  `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
}

// New wires the module and registers its HTTP endpoints. It returns the
// usecase so other modules can verify passcodes in-process.
func New(dep Dependency) (*usecase.Usecase, error) {
	if err := dep.Validator.Validate(dep); err != nil {
		return nil, err
	}

	uc := usecase.New(usecase.Dependency{
		RepoDB:    db.NewDB(dep.DBConn, dep.Instrument),
		RepoCache: cache.NewCache(dep.CacheConn, dep.Instrument),
		RepoMsg:   mq.NewMessaging(dep.Messaging, dep.Instrument),
		Senders: map[entity.Channel]delivery.Sender{
			entity.ChannelEmail: delivery.NewEmail(dep.Mail, dep.Instrument),
			entity.ChannelSMS:   delivery.NewSMS(dep.SMSGate, dep.Instrument),
		},
		Passcode:   dep.Passcode,
		Validator:  dep.Validator,
		Config:     dep.Config,
		Bcrypt:     dep.Bcrypt,
		UID:        dep.UID,
		Clock:      dep.Clock,
		Instrument: dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return uc, nil
}
