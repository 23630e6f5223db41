package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/otpgate/otpgate/internal/account/entity"
	"github.com/otpgate/otpgate/internal/pkg/goerror"
)

const usernameSuffixLimit = 50

type VerifyAuthInput struct {
	Contact string `validate:"required,contact"`
	Code    string `validate:"required,min=4,max=10"`
}

type VerifyAuthOutput struct {
	AccountID    int64
	Username     string
	Created      bool
	AccessToken  string
	RefreshToken string
}

// VerifyAuth confirms the passcode for a contact and signs the caller
// in, creating an account bound to the contact on first use.
func (s *Usecase) VerifyAuth(ctx context.Context, in VerifyAuthInput) (*VerifyAuthOutput, error) {
	ctx, span := s.startSpan(ctx, "VerifyAuth")
	defer span.End()

	in.Contact = strings.TrimSpace(in.Contact)
	if strings.Contains(in.Contact, "@") {
		in.Contact = strings.ToLower(in.Contact)
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	if err := s.verifier.VerifyPasscode(ctx, in.Contact, in.Code); err != nil {
		return nil, err
	}

	acc, created, err := s.establish(ctx, in.Contact)
	if err != nil {
		return nil, err
	}

	accessToken, refreshToken, err := s.issueTokens(ctx, acc)
	if err != nil {
		return nil, err
	}

	return &VerifyAuthOutput{
		AccountID:    acc.ID,
		Username:     acc.Username,
		Created:      created,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// establish finds the account for a contact or creates one. The
// username derives from the contact; collisions get a numeric suffix
// starting at 2, mirroring the usual "john, john-2, john-3" scheme.
func (s *Usecase) establish(ctx context.Context, contact string) (*entity.Account, bool, error) {
	acc, err := s.repoDB.GetByContact(ctx, contact)
	if err == nil {
		return acc, false, nil
	}
	if !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to repo get account by contact", "contact", contact, "error", err)
		return nil, false, goerror.NewServer(err)
	}

	username, err := s.availableUsername(ctx, deriveUsername(contact))
	if err != nil {
		return nil, false, err
	}

	// Accounts have no password login; the stored credential is a random
	// secret so the column is never empty or guessable.
	credentialHash, err := s.argon2id.Hash(s.oid.Generate())
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash account credential", "error", err)
		return nil, false, goerror.NewServer(err)
	}

	newAcc := entity.NewAccount{
		ID:             int64(s.uid.Generate()),
		Username:       username,
		Contact:        contact,
		CredentialHash: string(credentialHash),
	}
	if err := s.repoDB.Create(ctx, newAcc); err != nil {
		if errors.Is(err, goerror.ErrConflict) {
			// A concurrent request created the account; use theirs.
			if acc, getErr := s.repoDB.GetByContact(ctx, contact); getErr == nil {
				return acc, false, nil
			}
		}
		slog.ErrorContext(ctx, "failed to repo create account", "contact", contact, "error", err)
		return nil, false, goerror.NewServer(err)
	}

	return &entity.Account{
		ID:       newAcc.ID,
		Username: newAcc.Username,
		Contact:  newAcc.Contact,
	}, true, nil
}

func (s *Usecase) availableUsername(ctx context.Context, base string) (string, error) {
	candidate := base
	for i := 2; i <= usernameSuffixLimit; i++ {
		taken, err := s.repoDB.UsernameExists(ctx, candidate)
		if err != nil {
			slog.ErrorContext(ctx, "failed to repo check username", "username", candidate, "error", err)
			return "", goerror.NewServer(err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}

	return "", goerror.NewServer(fmt.Errorf("no available username for base %q", base))
}

// deriveUsername turns a contact into a username base: the local part of
// an email, or the digits of a phone number.
func deriveUsername(contact string) string {
	if at := strings.IndexByte(contact, '@'); at > 0 {
		return contact[:at]
	}
	return strings.TrimPrefix(contact, "+")
}
