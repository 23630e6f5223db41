package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/otpgate/otpgate/internal/account/entity"
	"github.com/otpgate/otpgate/internal/pkg/goerror"
	"github.com/otpgate/otpgate/internal/pkg/hash"
	"github.com/otpgate/otpgate/internal/pkg/instrument"
	"github.com/otpgate/otpgate/internal/pkg/jwt"
	"github.com/otpgate/otpgate/internal/pkg/validator"
)

type fakeDB struct {
	accounts  map[string]*entity.Account // by contact
	usernames map[string]bool
	// missFirstGet makes the first GetByContact miss even when the
	// account exists, simulating a concurrent creation race.
	missFirstGet bool
	createErr    error
	created      []entity.NewAccount

	tokens     map[string]*entity.RefreshToken // by token hash
	inserted   []entity.NewRefreshToken
	rotated    []entity.RotateRefreshToken
	rotateErr  error
	revokedAll []int64
}

func (f *fakeDB) GetByContact(_ context.Context, contact string) (*entity.Account, error) {
	if f.missFirstGet {
		f.missFirstGet = false
		return nil, goerror.ErrNotFound
	}
	acc, ok := f.accounts[contact]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	cp := *acc
	return &cp, nil
}

func (f *fakeDB) UsernameExists(_ context.Context, username string) (bool, error) {
	return f.usernames[username], nil
}

func (f *fakeDB) Create(_ context.Context, in entity.NewAccount) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, in)
	f.accounts[in.Contact] = &entity.Account{ID: in.ID, Username: in.Username, Contact: in.Contact}
	f.usernames[in.Username] = true
	return nil
}

func (f *fakeDB) InsertRefreshToken(_ context.Context, in entity.NewRefreshToken) error {
	f.inserted = append(f.inserted, in)
	f.tokens[in.TokenHash] = &entity.RefreshToken{
		ID:        in.ID,
		AccountID: in.AccountID,
		TokenHash: in.TokenHash,
		ExpiresAt: in.ExpiresAt,
	}
	return nil
}

func (f *fakeDB) GetRefreshToken(_ context.Context, tokenHash string) (*entity.RefreshToken, error) {
	rt, ok := f.tokens[tokenHash]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	cp := *rt
	return &cp, nil
}

func (f *fakeDB) RotateRefreshToken(_ context.Context, in entity.RotateRefreshToken) error {
	if f.rotateErr != nil {
		return f.rotateErr
	}
	f.rotated = append(f.rotated, in)
	for _, rt := range f.tokens {
		if rt.ID == in.OldID {
			rt.Revoked = true
			id := in.NewID
			rt.ReplacedByID = &id
		}
	}
	f.tokens[in.NewTokenHash] = &entity.RefreshToken{
		ID:        in.NewID,
		AccountID: in.AccountID,
		TokenHash: in.NewTokenHash,
		ExpiresAt: in.NewExpiresAt,
	}
	return nil
}

func (f *fakeDB) RevokeAllRefreshTokens(_ context.Context, accountID int64) error {
	f.revokedAll = append(f.revokedAll, accountID)
	for _, rt := range f.tokens {
		if rt.AccountID == accountID {
			rt.Revoked = true
		}
	}
	return nil
}

type fakeVerifier struct {
	err      error
	verified []string
}

func (f *fakeVerifier) VerifyPasscode(_ context.Context, contact, _ string) error {
	if f.err != nil {
		return f.err
	}
	f.verified = append(f.verified, contact)
	return nil
}

type fakeJWT struct{ err error }

func (f *fakeJWT) Generate(uid int64, email string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("jwt-%d-%s", uid, email), nil
}

func (f *fakeJWT) Verify(string) (jwt.Claims, error) { return jwt.Claims{}, nil }

type fakeClock struct{ now time.Time }

func (f *fakeClock) Now() time.Time { return f.now }

type fakeUID struct{ next uint64 }

func (f *fakeUID) Generate() uint64 {
	f.next++
	return f.next
}

type fakeOID struct{ next int }

func (f *fakeOID) Generate() string {
	f.next++
	return fmt.Sprintf("opaque-%d", f.next)
}

type cfgStub struct{ days map[string]time.Duration }

func (c *cfgStub) Close() error                    { return nil }
func (c *cfgStub) GetSecond(string) time.Duration  { return 0 }
func (c *cfgStub) GetMinute(string) time.Duration  { return 0 }
func (c *cfgStub) GetHour(string) time.Duration    { return 0 }
func (c *cfgStub) GetDay(key string) time.Duration { return c.days[key] }
func (c *cfgStub) GetInt(string) int               { return 0 }
func (c *cfgStub) GetInt32(string) int32           { return 0 }
func (c *cfgStub) GetInt64(string) int64           { return 0 }
func (c *cfgStub) GetUint(string) uint             { return 0 }
func (c *cfgStub) GetUint16(string) uint16         { return 0 }
func (c *cfgStub) GetUint32(string) uint32         { return 0 }
func (c *cfgStub) GetUint64(string) uint64         { return 0 }
func (c *cfgStub) GetFloat32(string) float32       { return 0 }
func (c *cfgStub) GetFloat64(string) float64       { return 0 }
func (c *cfgStub) GetBool(string) bool             { return false }
func (c *cfgStub) GetString(string) string         { return "" }
func (c *cfgStub) GetBinary(string) []byte         { return nil }
func (c *cfgStub) GetArray(string) []string        { return nil }
func (c *cfgStub) GetMap(string) map[string]string { return nil }

type fixture struct {
	uc       *Usecase
	db       *fakeDB
	verifier *fakeVerifier
	clock    *fakeClock
	hmac     hash.Hash
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	v, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("build validator: %v", err)
	}

	f := &fixture{
		db: &fakeDB{
			accounts:  make(map[string]*entity.Account),
			usernames: make(map[string]bool),
			tokens:    make(map[string]*entity.RefreshToken),
		},
		verifier: &fakeVerifier{},
		clock:    &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)},
		hmac:     hash.NewHMACSHA256("test-secret"),
	}

	f.uc = New(Dependency{
		RepoDB:     f.db,
		Verifier:   f.verifier,
		Config:     &cfgStub{},
		UID:        &fakeUID{},
		OID:        &fakeOID{},
		HMAC:       f.hmac,
		Argon2ID:   hash.NewArgon2id(""),
		JWT:        &fakeJWT{},
		Clock:      f.clock,
		Validator:  v,
		Instrument: instrument.NewNoop(),
	})

	return f
}

// seedToken stores a refresh token and returns its plaintext.
func (f *fixture) seedToken(t *testing.T, id, accountID int64, expiresAt time.Time) string {
	t.Helper()

	token := fmt.Sprintf("seed-token-%d", id)
	h, err := f.hmac.Hash(token)
	if err != nil {
		t.Fatalf("hash seed token: %v", err)
	}
	f.db.tokens[string(h)] = &entity.RefreshToken{
		ID:        id,
		AccountID: accountID,
		Contact:   "user@example.com",
		TokenHash: string(h),
		ExpiresAt: expiresAt,
	}
	return token
}

func TestVerifyAuthCreatesAccount(t *testing.T) {
	// Arrange
	f := newFixture(t)

	// Act
	out, err := f.uc.VerifyAuth(context.Background(), VerifyAuthInput{
		Contact: " John@Example.com ",
		Code:    "123456",
	})

	// Assert
	if err != nil {
		t.Fatalf("verify auth failed: %v", err)
	}
	if !out.Created {
		t.Fatal("expected a newly created account")
	}
	if out.Username != "john" {
		t.Fatalf("username = %q, want john", out.Username)
	}
	if len(f.verifier.verified) != 1 || f.verifier.verified[0] != "john@example.com" {
		t.Fatalf("verifier saw %v, want normalized contact", f.verifier.verified)
	}
	if out.AccessToken == "" || out.RefreshToken == "" {
		t.Fatal("expected both tokens in output")
	}
	if len(f.db.created) != 1 || f.db.created[0].CredentialHash == "" {
		t.Fatal("expected account created with a random credential")
	}
	if len(f.db.inserted) != 1 {
		t.Fatalf("inserted %d refresh tokens, want 1", len(f.db.inserted))
	}
}

func TestVerifyAuthExistingAccount(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.db.accounts["john@example.com"] = &entity.Account{ID: 9, Username: "john", Contact: "john@example.com"}

	// Act
	out, err := f.uc.VerifyAuth(context.Background(), VerifyAuthInput{
		Contact: "john@example.com",
		Code:    "123456",
	})

	// Assert
	if err != nil {
		t.Fatalf("verify auth failed: %v", err)
	}
	if out.Created {
		t.Fatal("expected no new account for a known contact")
	}
	if out.AccountID != 9 {
		t.Fatalf("account id = %d, want 9", out.AccountID)
	}
	if len(f.db.created) != 0 {
		t.Fatalf("created %d accounts, want 0", len(f.db.created))
	}
}

func TestVerifyAuthUsernameCollision(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.db.usernames["john"] = true
	f.db.usernames["john-2"] = true

	// Act
	out, err := f.uc.VerifyAuth(context.Background(), VerifyAuthInput{
		Contact: "john@other.com",
		Code:    "123456",
	})

	// Assert
	if err != nil {
		t.Fatalf("verify auth failed: %v", err)
	}
	if out.Username != "john-3" {
		t.Fatalf("username = %q, want john-3", out.Username)
	}
}

func TestVerifyAuthPhoneUsername(t *testing.T) {
	// Arrange
	f := newFixture(t)

	// Act
	out, err := f.uc.VerifyAuth(context.Background(), VerifyAuthInput{
		Contact: "+15550001111",
		Code:    "123456",
	})

	// Assert
	if err != nil {
		t.Fatalf("verify auth failed: %v", err)
	}
	if out.Username != "15550001111" {
		t.Fatalf("username = %q, want 15550001111", out.Username)
	}
}

func TestVerifyAuthWrongCodePassesReasonThrough(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.verifier.err = goerror.NewBusinessReason("Incorrect OTP code", goerror.CodeInvalidInput, "otp_incorrect")

	// Act
	_, err := f.uc.VerifyAuth(context.Background(), VerifyAuthInput{
		Contact: "john@example.com",
		Code:    "000000",
	})

	// Assert
	if goerror.ReasonOf(err) != "otp_incorrect" {
		t.Fatalf("reason = %q, want otp_incorrect", goerror.ReasonOf(err))
	}
	if len(f.db.created) != 0 {
		t.Fatal("no account should be created on a failed verification")
	}
}

func TestVerifyAuthConcurrentCreateConflict(t *testing.T) {
	// Arrange: the first lookup misses, the insert conflicts, and the
	// second lookup finds the row the other request created.
	f := newFixture(t)
	f.db.missFirstGet = true
	f.db.createErr = goerror.ErrConflict
	f.db.accounts["john@example.com"] = &entity.Account{ID: 77, Username: "john", Contact: "john@example.com"}

	// Act
	out, err := f.uc.VerifyAuth(context.Background(), VerifyAuthInput{
		Contact: "john@example.com",
		Code:    "123456",
	})

	// Assert
	if err != nil {
		t.Fatalf("verify auth failed: %v", err)
	}
	if out.Created || out.AccountID != 77 {
		t.Fatalf("expected the existing account 77, got created=%v id=%d", out.Created, out.AccountID)
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	// Arrange
	f := newFixture(t)
	token := f.seedToken(t, 1, 9, f.clock.now.Add(time.Hour))

	// Act
	out, err := f.uc.Refresh(context.Background(), RefreshInput{RefreshToken: token})

	// Assert
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if out.AccessToken == "" || out.RefreshToken == "" {
		t.Fatal("expected a new token pair")
	}
	if out.RefreshToken == token {
		t.Fatal("refresh token was not rotated")
	}
	if len(f.db.rotated) != 1 || f.db.rotated[0].OldID != 1 {
		t.Fatalf("rotated = %+v, want old id 1", f.db.rotated)
	}
}

func TestRefreshUnknownToken(t *testing.T) {
	// Arrange
	f := newFixture(t)

	// Act
	_, err := f.uc.Refresh(context.Background(), RefreshInput{RefreshToken: "bogus"})

	// Assert
	var gerr *goerror.Error
	if !errors.As(err, &gerr) || gerr.Code() != goerror.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestRefreshExpiredToken(t *testing.T) {
	// Arrange
	f := newFixture(t)
	token := f.seedToken(t, 1, 9, f.clock.now.Add(-time.Minute))

	// Act
	_, err := f.uc.Refresh(context.Background(), RefreshInput{RefreshToken: token})

	// Assert
	var gerr *goerror.Error
	if !errors.As(err, &gerr) || gerr.Code() != goerror.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if len(f.db.rotated) != 0 {
		t.Fatal("expired token must not rotate")
	}
}

func TestRefreshReuseDetection(t *testing.T) {
	// Arrange
	f := newFixture(t)
	token := f.seedToken(t, 1, 9, f.clock.now.Add(time.Hour))

	first, err := f.uc.Refresh(context.Background(), RefreshInput{RefreshToken: token})
	if err != nil {
		t.Fatalf("first refresh failed: %v", err)
	}

	// Act: replay the already-rotated token.
	_, err = f.uc.Refresh(context.Background(), RefreshInput{RefreshToken: token})

	// Assert
	var gerr *goerror.Error
	if !errors.As(err, &gerr) || gerr.Code() != goerror.CodeForbidden {
		t.Fatalf("expected forbidden on reuse, got %v", err)
	}
	if len(f.db.revokedAll) != 1 || f.db.revokedAll[0] != 9 {
		t.Fatalf("revoked accounts = %v, want [9]", f.db.revokedAll)
	}

	// The successor token was revoked with the rest of the family.
	if _, err := f.uc.Refresh(context.Background(), RefreshInput{RefreshToken: first.RefreshToken}); err == nil {
		t.Fatal("expected the rotated successor to be revoked too")
	}
}
