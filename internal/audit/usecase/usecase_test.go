package usecase

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/otpgate/otpgate/internal/audit/entity"
	"github.com/otpgate/otpgate/internal/pkg/idempotency"
	"github.com/otpgate/otpgate/internal/pkg/instrument"
	"github.com/otpgate/otpgate/internal/pkg/storage"
	"github.com/otpgate/otpgate/internal/pkg/validator"
)

type fakeDB struct {
	inserted   []entity.NewEntry
	entries    []entity.Entry
	total      int64
	lastFilter entity.ListFilter
	purgedAt   time.Time
	purgeN     int64
	deletedIDs []int64
	deleteN    int64
}

func (f *fakeDB) Insert(_ context.Context, in entity.NewEntry) error {
	f.inserted = append(f.inserted, in)
	return nil
}

func (f *fakeDB) List(_ context.Context, filter entity.ListFilter) ([]entity.Entry, int64, error) {
	f.lastFilter = filter
	if filter.Offset > 0 {
		return nil, f.total, nil
	}
	return f.entries, f.total, nil
}

func (f *fakeDB) Stats(_ context.Context) (*entity.Stats, error) {
	return &entity.Stats{Total: f.total}, nil
}

func (f *fakeDB) Purge(_ context.Context, before time.Time) (int64, error) {
	f.purgedAt = before
	return f.purgeN, nil
}

func (f *fakeDB) DeleteByIDs(_ context.Context, ids []int64) (int64, error) {
	f.deletedIDs = ids
	return f.deleteN, nil
}

// fakeIdemp runs the guarded function once per key, mimicking the
// redis-backed state tracker: a repeated key reports already-completed.
type fakeIdemp struct {
	seen []string
	done map[string]bool
}

func (f *fakeIdemp) Acquire(context.Context, string, time.Duration) (idempotency.State, error) {
	return idempotency.StateNone, nil
}

func (f *fakeIdemp) MarkCompleted(context.Context, string, time.Duration) error { return nil }
func (f *fakeIdemp) MarkFailed(context.Context, string, time.Duration) error    { return nil }

func (f *fakeIdemp) Exec(ctx context.Context, key string, fn func(context.Context) error, _ ...idempotency.Option) error {
	f.seen = append(f.seen, key)
	if f.done[key] {
		return idempotency.ErrAlreadyCompleted
	}
	if f.done == nil {
		f.done = make(map[string]bool)
	}
	f.done[key] = true
	return fn(ctx)
}

type fakeStore struct {
	bucket      string
	key         string
	body        []byte
	contentType string
	presignURL  string
}

func (f *fakeStore) PutObject(_ context.Context, bucket, key string, r io.Reader, opts storage.PutOptions) (storage.ObjectInfo, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return storage.ObjectInfo{}, err
	}
	f.bucket = bucket
	f.key = key
	f.body = body
	f.contentType = opts.ContentType
	return storage.ObjectInfo{Bucket: bucket, Key: key, Size: int64(len(body))}, nil
}

func (f *fakeStore) PresignGet(_ context.Context, bucket, key string, _ time.Duration) (string, error) {
	f.presignURL = "https://storage.local/" + bucket + "/" + key
	return f.presignURL, nil
}

type fakeClock struct{ now time.Time }

func (f *fakeClock) Now() time.Time { return f.now }

type fakeUID struct{ next uint64 }

func (f *fakeUID) Generate() uint64 {
	f.next++
	return f.next
}

type cfgStub struct {
	strings map[string]string
	days    map[string]time.Duration
}

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
func (c *cfgStub) GetString(key string) string     { return c.strings[key] }
func (c *cfgStub) GetBinary(string) []byte         { return nil }
func (c *cfgStub) GetArray(string) []string        { return nil }
func (c *cfgStub) GetMap(string) map[string]string { return nil }

type fixture struct {
	uc    *Usecase
	db    *fakeDB
	idemp *fakeIdemp
	store *fakeStore
	clock *fakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	v, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("build validator: %v", err)
	}

	f := &fixture{
		db:    &fakeDB{},
		idemp: &fakeIdemp{},
		store: &fakeStore{},
		clock: &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)},
	}

	f.uc = New(Dependency{
		RepoDB:      f.db,
		Storage:     f.store,
		Idempotency: f.idemp,
		Config:      &cfgStub{strings: map[string]string{"modules.audit.export_bucket": "otpgate-exports"}},
		UID:         &fakeUID{},
		Clock:       f.clock,
		Validator:   v,
		Instrument:  instrument.NewNoop(),
	})

	return f
}

func TestRecord(t *testing.T) {
	// Arrange
	f := newFixture(t)
	at := time.Date(2025, 6, 1, 11, 58, 0, 0, time.UTC)

	// Act
	err := f.uc.Record(context.Background(), RecordInput{
		EventID:   901,
		EventType: "info",
		Subject:   "email_sent",
		Contact:   "user@example.com",
		Channel:   "email",
		Message:   "OTP sent to user@example.com via email",
		At:        at,
	})

	// Assert
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if len(f.db.inserted) != 1 {
		t.Fatalf("inserted %d entries, want 1", len(f.db.inserted))
	}
	got := f.db.inserted[0]
	if got.EventType != "info" || got.Subject != "email_sent" {
		t.Fatalf("event type/subject = %q/%q, want info/email_sent", got.EventType, got.Subject)
	}
	if len(f.idemp.seen) != 1 || f.idemp.seen[0] != "audit:record:901" {
		t.Fatalf("idempotency keys = %v, want [audit:record:901]", f.idemp.seen)
	}
	if !got.CreatedAt.Equal(at) {
		t.Fatalf("created_at = %v, want %v", got.CreatedAt, at)
	}
	if got.ID == 0 {
		t.Fatal("expected a generated entry id")
	}
}

func TestRecordZeroTimeFallsBackToClock(t *testing.T) {
	// Arrange
	f := newFixture(t)

	// Act
	err := f.uc.Record(context.Background(), RecordInput{
		EventID:   902,
		EventType: "error",
		Subject:   "sms_failed",
		Contact:   "+15550001111",
		Channel:   "sms",
	})

	// Assert
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if !f.db.inserted[0].CreatedAt.Equal(f.clock.now) {
		t.Fatalf("created_at = %v, want clock time %v", f.db.inserted[0].CreatedAt, f.clock.now)
	}
}

func TestRecordRedeliveryIsNoop(t *testing.T) {
	// Arrange
	f := newFixture(t)
	in := RecordInput{
		EventID:   903,
		EventType: "info",
		Subject:   "email_sent",
		Contact:   "user@example.com",
		At:        f.clock.now,
	}

	// Act: the broker redelivers the same message.
	if err := f.uc.Record(context.Background(), in); err != nil {
		t.Fatalf("record failed: %v", err)
	}
	err := f.uc.Record(context.Background(), in)

	// Assert
	if err != nil {
		t.Fatalf("redelivered record should be a no-op, got: %v", err)
	}
	if len(f.db.inserted) != 1 {
		t.Fatalf("inserted %d entries, want 1", len(f.db.inserted))
	}
}

func TestRecordSameSecondDistinctEvents(t *testing.T) {
	// Arrange: two wrong guesses inside one second are distinct events
	// and must both land in the trail.
	f := newFixture(t)
	in := RecordInput{
		EventType: "warning",
		Subject:   "otp_incorrect",
		Contact:   "user@example.com",
		At:        f.clock.now,
	}

	// Act
	first, second := in, in
	first.EventID, second.EventID = 904, 905
	if err := f.uc.Record(context.Background(), first); err != nil {
		t.Fatalf("first record failed: %v", err)
	}
	err := f.uc.Record(context.Background(), second)

	// Assert
	if err != nil {
		t.Fatalf("second record failed: %v", err)
	}
	if len(f.db.inserted) != 2 {
		t.Fatalf("inserted %d entries, want 2", len(f.db.inserted))
	}
}

func TestRecordInvalidInput(t *testing.T) {
	// Arrange
	f := newFixture(t)

	// Act
	err := f.uc.Record(context.Background(), RecordInput{Contact: "user@example.com"})

	// Assert
	if err == nil {
		t.Fatal("expected a validation error, got nil")
	}
	if len(f.db.inserted) != 0 {
		t.Fatalf("inserted %d entries, want 0", len(f.db.inserted))
	}
}

func TestListDefaults(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.db.total = 42

	// Act
	out, err := f.uc.List(context.Background(), ListInput{})

	// Assert
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if out.Page != 1 || out.PageSize != listDefaultPageSize {
		t.Fatalf("page=%d size=%d, want 1/%d", out.Page, out.PageSize, listDefaultPageSize)
	}
	if f.db.lastFilter.Limit != listDefaultPageSize || f.db.lastFilter.Offset != 0 {
		t.Fatalf("filter limit=%d offset=%d, want %d/0", f.db.lastFilter.Limit, f.db.lastFilter.Offset, listDefaultPageSize)
	}
	if out.Total != 42 {
		t.Fatalf("total = %d, want 42", out.Total)
	}
}

func TestListClampsPageSize(t *testing.T) {
	// Arrange
	f := newFixture(t)

	// Act
	out, err := f.uc.List(context.Background(), ListInput{Page: 3, PageSize: 10_000})

	// Assert
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if out.PageSize != listMaxPageSize {
		t.Fatalf("page size = %d, want %d", out.PageSize, listMaxPageSize)
	}
	if f.db.lastFilter.Offset != 2*listMaxPageSize {
		t.Fatalf("offset = %d, want %d", f.db.lastFilter.Offset, 2*listMaxPageSize)
	}
}

func TestPurgeUsesDefaultRetention(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.db.purgeN = 5

	// Act
	out, err := f.uc.Purge(context.Background(), PurgeInput{})

	// Assert
	if err != nil {
		t.Fatalf("purge failed: %v", err)
	}
	if out.Removed != 5 {
		t.Fatalf("removed = %d, want 5", out.Removed)
	}
	want := f.clock.now.Add(-90 * 24 * time.Hour)
	if !f.db.purgedAt.Equal(want) {
		t.Fatalf("purge cutoff = %v, want %v", f.db.purgedAt, want)
	}
}

func TestPurgeOlderThanOverride(t *testing.T) {
	// Arrange
	f := newFixture(t)

	// Act
	_, err := f.uc.Purge(context.Background(), PurgeInput{OlderThanDays: 7})

	// Assert
	if err != nil {
		t.Fatalf("purge failed: %v", err)
	}
	want := f.clock.now.Add(-7 * 24 * time.Hour)
	if !f.db.purgedAt.Equal(want) {
		t.Fatalf("purge cutoff = %v, want %v", f.db.purgedAt, want)
	}
}

func TestPurgeByIDs(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.db.deleteN = 2

	// Act
	out, err := f.uc.Purge(context.Background(), PurgeInput{IDs: []int64{11, 12}})

	// Assert
	if err != nil {
		t.Fatalf("purge failed: %v", err)
	}
	if out.Removed != 2 {
		t.Fatalf("removed = %d, want 2", out.Removed)
	}
	if len(f.db.deletedIDs) != 2 || !f.db.purgedAt.IsZero() {
		t.Fatal("expected an id-based delete, not an age-based sweep")
	}
}

func TestExport(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.db.entries = []entity.Entry{
		{ID: 1, EventType: "info", Subject: "email_sent", Contact: "a@example.com", Channel: "email", CreatedAt: f.clock.now},
		{ID: 2, EventType: "info", Subject: "otp_verified", Contact: "a@example.com", Channel: "email", CreatedAt: f.clock.now},
	}

	// Act
	out, err := f.uc.Export(context.Background(), ExportInput{Contact: "a@example.com"})

	// Assert
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if out.Rows != 2 {
		t.Fatalf("rows = %d, want 2", out.Rows)
	}
	if f.store.bucket != "otpgate-exports" {
		t.Fatalf("bucket = %q, want otpgate-exports", f.store.bucket)
	}
	if f.store.contentType != "text/csv" {
		t.Fatalf("content type = %q, want text/csv", f.store.contentType)
	}
	csv := string(f.store.body)
	if !strings.HasPrefix(csv, "id,event_type,subject,contact,message,channel,user_id,created_at\n") {
		t.Fatalf("csv missing header row, got:\n%s", csv)
	}
	if !strings.Contains(csv, "1,info,email_sent,a@example.com,,email,0,2025-06-01T12:00:00Z") {
		t.Fatalf("csv missing first entry, got:\n%s", csv)
	}
	if out.DownloadURL != f.store.presignURL {
		t.Fatalf("download url = %q, want %q", out.DownloadURL, f.store.presignURL)
	}
}
