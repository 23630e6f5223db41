package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/otpgate/otpgate/internal/otp/entity"
	"github.com/otpgate/otpgate/internal/otp/outbound/delivery"
	"github.com/otpgate/otpgate/internal/pkg/clock"
	"github.com/otpgate/otpgate/internal/pkg/config"
	"github.com/otpgate/otpgate/internal/pkg/hash"
	"github.com/otpgate/otpgate/internal/pkg/instrument"
	"github.com/otpgate/otpgate/internal/pkg/passcode"
	"github.com/otpgate/otpgate/internal/pkg/uid"
	"github.com/otpgate/otpgate/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

// LifecycleEvent is one audit record of a send or verify outcome. ID is
// assigned at publish time so the consumer can deduplicate redeliveries.
// EventType is the severity; Subject carries the result code.
type LifecycleEvent struct {
	ID        int64
	EventType string
	Subject   string
	Contact   string
	Channel   string
	Message   string
	UserID    int64
	At        time.Time
}

type repoMessaging interface {
	PublishLifecycle(ctx context.Context, msg LifecycleEvent) error
}

type repoDB interface {
	SaveCode(ctx context.Context, in entity.NewRecord) error
	GetByContact(ctx context.Context, contact string) (*entity.Record, error)
	UpdateStatus(ctx context.Context, contact string, to entity.Status) (bool, error)
	IncrementAttempts(ctx context.Context, contact string) (int32, error)
	CleanupExpired(ctx context.Context) (int64, error)
}

type repoCache interface {
	RecentIssueCount(ctx context.Context, contact string) (int64, error)
	MarkIssued(ctx context.Context, contact string, window time.Duration) error
}

type Usecase struct {
	repoDB    repoDB
	repoCache repoCache
	repoMsg   repoMessaging
	senders   map[entity.Channel]delivery.Sender
	passcode  passcode.Factory
	validator validator.Validator
	cfg       config.Config
	bcrypt    hash.Hash
	uid       uid.NumberID
	clock     clock.Clocker
	ins       instrument.Instrumentation
}

type Dependency struct {
	RepoDB     repoDB
	RepoCache  repoCache
	RepoMsg    repoMessaging
	Senders    map[entity.Channel]delivery.Sender
	Passcode   passcode.Factory
	Validator  validator.Validator
	Config     config.Config
	Bcrypt     hash.Hash
	UID        uid.NumberID
	Clock      clock.Clocker
	Instrument instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:    dep.RepoDB,
		repoCache: dep.RepoCache,
		repoMsg:   dep.RepoMsg,
		senders:   dep.Senders,
		passcode:  dep.Passcode,
		validator: dep.Validator,
		cfg:       dep.Config,
		bcrypt:    dep.Bcrypt,
		uid:       dep.UID,
		clock:     dep.Clock,
		ins:       dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("otp.usecase").Start(ctx, name)
}

// settings builds an immutable policy snapshot from configuration. Each
// operation takes one snapshot up front so a live config reload never
// changes policy mid-flow.
func (s *Usecase) settings() entity.Settings {
	channels := make([]entity.Channel, 0, 2)
	for _, c := range s.cfg.GetArray("modules.otp.channels") {
		if ch := entity.ChannelFromString(c); ch != entity.ChannelUnknown {
			channels = append(channels, ch)
		}
	}
	if len(channels) == 0 {
		channels = []entity.Channel{entity.ChannelEmail}
	}

	set := entity.Settings{
		Channels:     channels,
		CodeLength:   s.cfg.GetInt("modules.otp.code_length"),
		Expiry:       s.cfg.GetMinute("modules.otp.expiry_minutes"),
		ResendLimit:  s.cfg.GetInt64("modules.otp.resend_limit"),
		ResendWindow: s.cfg.GetMinute("modules.otp.resend_window_minutes"),
		MaxAttempts:  s.cfg.GetInt32("modules.otp.max_attempts"),
		EmailSubject: s.cfg.GetString("modules.otp.email_subject_template"),
		EmailBody:    s.cfg.GetString("modules.otp.email_body_template"),
		SMSMessage:   s.cfg.GetString("modules.otp.sms_message_template"),
	}

	if set.CodeLength == 0 {
		set.CodeLength = 6
	}
	if set.Expiry == 0 {
		set.Expiry = 5 * time.Minute
	}
	if set.ResendLimit == 0 {
		set.ResendLimit = 3
	}
	if set.ResendWindow == 0 {
		set.ResendWindow = 15 * time.Minute
	}
	if set.MaxAttempts == 0 {
		set.MaxAttempts = 3
	}
	if set.EmailSubject == "" {
		set.EmailSubject = "Your OTP Code"
	}
	if set.EmailBody == "" {
		set.EmailBody = "Your OTP code is {OTP}. It will expire in {MINUTES} minutes."
	}
	if set.SMSMessage == "" {
		set.SMSMessage = "Your OTP code is {OTP}. It will expire in {MINUTES} minutes."
	}

	return set
}

// logEvent publishes an audit record for one flow branch. The sink is
// fire-and-forget: a publish failure is logged and never aborts the flow.
func (s *Usecase) logEvent(ctx context.Context, reason, contact, channel, message string) {
	if err := s.repoMsg.PublishLifecycle(ctx, LifecycleEvent{
		ID:        int64(s.uid.Generate()),
		EventType: entity.LevelOf(reason),
		Subject:   reason,
		Contact:   contact,
		Channel:   channel,
		Message:   message,
		At:        s.clock.Now(),
	}); err != nil {
		slog.WarnContext(ctx, "failed to publish otp lifecycle event",
			"subject", reason, "contact", contact, "error", err)
	}
}
