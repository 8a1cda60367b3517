package accounts_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"testing"

	accounts "github.com/goliatone/go-accounts"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// MockContext is a stateful router.Context double: requests go in through
// BodyRaw and CookiesIn, responses come out through JSONCode, JSONBody, and
// CookiesOut.
type MockContext struct {
	BodyRaw    []byte
	CookiesIn  map[string]string
	CookiesOut []*router.Cookie
	LocalsM    map[any]any
	HeadersM   map[string]string
	QueriesM   map[string]string
	ParamsM    map[string]string
	StatusCode int
	JSONCode   int
	JSONBody   any
	SentString string
	NextCalled bool

	ctx context.Context
}

func NewMockContext() *MockContext {
	return &MockContext{
		CookiesIn: map[string]string{},
		LocalsM:   map[any]any{},
		HeadersM:  map[string]string{},
		QueriesM:  map[string]string{},
		ParamsM:   map[string]string{},
		ctx:       context.Background(),
	}
}

// WithJSONBody sets the request body the next Bind call will decode.
func (m *MockContext) WithJSONBody(t *testing.T, v any) *MockContext {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	m.BodyRaw = raw
	return m
}

func (m *MockContext) Next() error {
	m.NextCalled = true
	return nil
}

func (m *MockContext) Context() context.Context {
	return m.ctx
}

func (m *MockContext) SetContext(ctx context.Context) {
	m.ctx = ctx
}

func (m *MockContext) Path() string   { return "/" }
func (m *MockContext) Method() string { return "POST" }
func (m *MockContext) Body() []byte   { return m.BodyRaw }

func (m *MockContext) Status(code int) router.Context {
	m.StatusCode = code
	return m
}

func (m *MockContext) SendString(s string) error {
	m.SentString = s
	return nil
}

func (m *MockContext) Send(b []byte) error {
	m.SentString = string(b)
	return nil
}

func (m *MockContext) JSON(code int, val any) error {
	m.JSONCode = code
	m.JSONBody = val
	return nil
}

func (m *MockContext) NoContent(code int) error {
	m.StatusCode = code
	return nil
}

func (m *MockContext) Render(name string, bind any, layout ...string) error {
	return nil
}

func (m *MockContext) Redirect(path string, status ...int) error {
	return nil
}

func (m *MockContext) RedirectToRoute(name string, data router.ViewContext, status ...int) error {
	return nil
}

func (m *MockContext) RedirectBack(fallback string, status ...int) error {
	return nil
}

func (m *MockContext) SetHeader(key, val string) router.Context {
	m.HeadersM[key] = val
	return m
}

func (m *MockContext) Header(key string) string {
	return m.HeadersM[key]
}

func (m *MockContext) Get(key string, defaultValue any) any {
	if v, ok := m.LocalsM[key]; ok {
		return v
	}
	return defaultValue
}

func (m *MockContext) GetBool(key string, defaultValue bool) bool { return defaultValue }
func (m *MockContext) GetInt(key string, def int) int             { return def }

func (m *MockContext) Set(key string, val any) {
	m.LocalsM[key] = val
}

func (m *MockContext) Bind(i any) error {
	if len(m.BodyRaw) == 0 {
		return nil
	}
	return json.Unmarshal(m.BodyRaw, i)
}

func (m *MockContext) BindJSON(i any) error  { return m.Bind(i) }
func (m *MockContext) BindXML(i any) error   { return nil }
func (m *MockContext) BindQuery(i any) error { return nil }

func (m *MockContext) CookieParser(i any) error { return nil }

func (m *MockContext) Cookie(cookie *router.Cookie) {
	m.CookiesOut = append(m.CookiesOut, cookie)
}

func (m *MockContext) Cookies(key string, defaultValue ...string) string {
	if v, ok := m.CookiesIn[key]; ok {
		return v
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func (m *MockContext) Param(key string, defaultValue ...string) string {
	if v, ok := m.ParamsM[key]; ok {
		return v
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

func (m *MockContext) ParamsInt(key string, defaultValue int) int { return defaultValue }

func (m *MockContext) Query(key string, defaultValue string) string {
	if v, ok := m.QueriesM[key]; ok {
		return v
	}
	return defaultValue
}

func (m *MockContext) QueryInt(key string, defaultValue int) int { return defaultValue }

func (m *MockContext) Queries() map[string]string {
	return m.QueriesM
}

func (m *MockContext) GetString(key string, defaultValue string) string {
	if v, ok := m.HeadersM[key]; ok {
		return v
	}
	return defaultValue
}

func (m *MockContext) Locals(key any, value ...any) any {
	if len(value) > 0 {
		m.LocalsM[key] = value[0]
		return nil
	}
	return m.LocalsM[key]
}

func (m *MockContext) OriginalURL() string {
	return "/"
}

func (m *MockContext) OnNext(callback func() error) {}

func (m *MockContext) Referer() string {
	return ""
}

// lastCookie returns the most recently set cookie with the given name.
func (m *MockContext) lastCookie(name string) *router.Cookie {
	for i := len(m.CookiesOut) - 1; i >= 0; i-- {
		if m.CookiesOut[i].Name == name {
			return m.CookiesOut[i]
		}
	}
	return nil
}

// stubIdentity implements accounts.Identity
type stubIdentity struct {
	id    string
	email string
}

func (s stubIdentity) ID() string    { return s.id }
func (s stubIdentity) Email() string { return s.email }

// fakeLedger is an in-memory RevocationLedger
type fakeLedger struct {
	entries map[uuid.UUID]*accounts.RevokedToken
	failing bool
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{entries: map[uuid.UUID]*accounts.RevokedToken{}}
}

func (f *fakeLedger) Insert(ctx context.Context, entry *accounts.RevokedToken) (*accounts.RevokedToken, error) {
	if f.failing {
		return nil, goerrors.New("ledger unavailable", goerrors.CategoryInternal)
	}
	f.entries[entry.TokenID] = entry
	return entry, nil
}

func (f *fakeLedger) Exists(ctx context.Context, tokenID uuid.UUID) (bool, error) {
	if f.failing {
		return false, goerrors.New("ledger unavailable", goerrors.CategoryInternal)
	}
	_, ok := f.entries[tokenID]
	return ok, nil
}

// fakeUserStore serves a fixed set of users by email
type fakeUserStore struct {
	users map[string]*accounts.User
	err   error
}

func (f *fakeUserStore) GetByIdentifier(ctx context.Context, identifier string) (*accounts.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	user, ok := f.users[identifier]
	if !ok {
		return nil, goerrors.New("record not found", goerrors.CategoryNotFound)
	}
	return user, nil
}

func testConfig() accounts.SimpleConfig {
	return accounts.SimpleConfig{
		SigningKey: "test-signing-key",
		Issuer:     "accounts-test",
	}
}

var testDBSeq atomic.Int64

// newTestDB opens a fresh in-memory database with the schema created.
func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s-%d?mode=memory&cache=shared", t.Name(), testDBSeq.Add(1))
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	require.NoError(t, err)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	models := []any{
		(*accounts.User)(nil),
		(*accounts.RevokedToken)(nil),
		(*accounts.NewsletterSubscriber)(nil),
	}

	for _, model := range models {
		_, err := db.NewCreateTable().Model(model).IfNotExists().Exec(context.Background())
		require.NoError(t, err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}
