package app

import (
	"log/slog"
	"os"

	"github.com/otpgate/otpgate/internal/account"
	"github.com/otpgate/otpgate/internal/audit"
	"github.com/otpgate/otpgate/internal/otp"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.otp.enabled") {
		otpUC, err := otp.New(otp.Dependency{
			DBConn:     a.dbConn,
			CacheConn:  a.cacheConn,
			Router:     a.router,
			Messaging:  a.messaging,
			Mail:       a.mail,
			SMSGate:    a.smsgate,
			Passcode:   a.passcode,
			Config:     a.config,
			Instrument: a.ins,
			UID:        a.uid,
			Bcrypt:     a.bcrypt,
			Clock:      a.clock,
			Validator:  a.validator,
		})
		if err != nil {
			slog.Error("failed to init module otp", "error", err)
			os.Exit(1)
		}
		a.otpUC = otpUC
	}

	if a.config.GetBool("modules.audit.enabled") {
		a.auditUC = audit.New(audit.Dependency{
			Ctx:         a.ctx,
			DBConn:      a.dbConn,
			Messaging:   a.messaging,
			Storage:     a.storage,
			Idempotency: a.idemp,
			Config:      a.config,
			Instrument:  a.ins,
			UID:         a.uid,
			UUID:        a.uuid,
			Clock:       a.clock,
			Goroutine:   a.goroutine,
			Validator:   a.validator,
			Router:      a.router,
		})
	}

	if a.config.GetBool("modules.account.enabled") {
		if a.otpUC == nil {
			slog.Error("module account requires module otp to be enabled")
			os.Exit(1)
		}

		if err := account.New(account.Dependency{
			DBConn:     a.dbConn,
			Verifier:   a.otpUC,
			Router:     a.router,
			Config:     a.config,
			Instrument: a.ins,
			UID:        a.uid,
			OID:        a.oid,
			HMAC:       a.hmac,
			Argon2ID:   a.argon2id,
			JWT:        a.jwt,
			Clock:      a.clock,
			Validator:  a.validator,
		}); err != nil {
			slog.Error("failed to init module account", "error", err)
			os.Exit(1)
		}
	}
}
