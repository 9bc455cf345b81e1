package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/baechuer/recipe-hub/internal/domain"
)

/*
Shared audit capture
*/

type auditEntry struct {
	action string
	fields map[string]string
}

/*
Fakes for ports
*/

type fakeUserRepo struct {
	mu sync.Mutex

	byID    map[string]domain.User
	byEmail map[string]domain.User

	// injected errors (if set, method returns error)
	getByIDErr    error
	getByEmailErr error
	createErr     error
	updatePwdErr  error

	updatedPwd []struct{ id, hash string }
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byID:    map[string]domain.User{},
		byEmail: map[string]domain.User{},
	}
}

func (f *fakeUserRepo) put(u domain.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[u.ID] = u
	f.byEmail[u.Email] = u
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getByEmailErr != nil {
		return domain.User{}, f.getByEmailErr
	}
	u, ok := f.byEmail[email]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound()
	}
	return u, nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getByIDErr != nil {
		return domain.User{}, f.getByIDErr
	}
	u, ok := f.byID[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound()
	}
	return u, nil
}

func (f *fakeUserRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return domain.User{}, f.createErr
	}
	if _, exists := f.byEmail[u.Email]; exists {
		return domain.User{}, domain.ErrEmailAlreadyExists()
	}
	f.byID[u.ID] = u
	f.byEmail[u.Email] = u
	return u, nil
}

func (f *fakeUserRepo) UpdatePasswordHash(ctx context.Context, userID string, newHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.updatePwdErr != nil {
		return f.updatePwdErr
	}
	u, ok := f.byID[userID]
	if !ok {
		return errors.New("not found")
	}
	u.PasswordHash = newHash
	f.byID[userID] = u
	f.byEmail[u.Email] = u
	f.updatedPwd = append(f.updatedPwd, struct{ id, hash string }{userID, newHash})
	return nil
}

// fakeHasher stores "hash:<pw>"; hashes starting with "old:" are deprecated but accepted.
type fakeHasher struct {
	hashFn   func(pw string) (string, error)
	verifyFn func(pw, hash string) bool

	mu          sync.Mutex
	verifyCalls int
}

func (h *fakeHasher) Hash(password string) (string, error) {
	if h.hashFn != nil {
		return h.hashFn(password)
	}
	return "hash:" + password, nil
}

func (h *fakeHasher) Verify(password, hash string) bool {
	h.mu.Lock()
	h.verifyCalls++
	h.mu.Unlock()
	if h.verifyFn != nil {
		return h.verifyFn(password, hash)
	}
	return hash == "hash:"+password || hash == "old:"+password
}

func (h *fakeHasher) NeedsRehash(hash string) bool {
	return strings.HasPrefix(hash, "old:")
}

// fakeCodec keeps issued claims in memory. A token only decodes under the kind it was
// signed for, mirroring independent signing keys.
type fakeCodec struct {
	mu     sync.Mutex
	seq    int
	now    func() time.Time
	claims map[string]TokenClaims
	signer map[string]TokenKind

	issueErr error
}

func newFakeCodec() *fakeCodec {
	return &fakeCodec{
		now:    time.Now,
		claims: map[string]TokenClaims{},
		signer: map[string]TokenKind{},
	}
}

func (c *fakeCodec) Issue(kind TokenKind, subject, email string, ttl time.Duration) (string, error) {
	if c.issueErr != nil {
		return "", c.issueErr
	}
	now := c.now()
	return c.forge(kind, TokenClaims{
		Subject:   subject,
		Email:     email,
		Type:      kind,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}), nil
}

// forge stores arbitrary claims signed under key, for malformed-claims tests.
func (c *fakeCodec) forge(key TokenKind, cl TokenClaims) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	tok := fmt.Sprintf("tok-%s-%d", key, c.seq)
	c.claims[tok] = cl
	c.signer[tok] = key
	return tok
}

func (c *fakeCodec) Decode(kind TokenKind, token string) (TokenClaims, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cl, ok := c.claims[token]
	if !ok || c.signer[token] != kind {
		return TokenClaims{}, domain.ErrTokenInvalid()
	}
	if !c.now().Before(cl.ExpiresAt) {
		return TokenClaims{}, domain.ErrTokenExpired()
	}
	return cl, nil
}

type fakePublisher struct {
	mu   sync.Mutex
	err  error
	evts []UserRegisteredEvent
}

func (p *fakePublisher) PublishUserRegistered(ctx context.Context, evt UserRegisteredEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.evts = append(p.evts, evt)
	return nil
}

/*
Service factory for tests
*/

type svcFixture struct {
	svc    *Service
	users  *fakeUserRepo
	hasher *fakeHasher
	codec  *fakeCodec
	pub    *fakePublisher
	audits *[]auditEntry
}

func newSvcForTest(t *testing.T) svcFixture {
	t.Helper()

	users := newFakeUserRepo()
	hasher := &fakeHasher{}
	codec := newFakeCodec()
	pub := &fakePublisher{}

	var mu sync.Mutex
	audits := &[]auditEntry{}
	cfg := Config{
		AccessTTL:  30 * time.Minute,
		RefreshTTL: 10080 * time.Minute,
	}

	svc := NewService(users, hasher, codec, pub, cfg).
		WithAudit(func(action string, fields map[string]string) {
			cp := map[string]string{}
			for k, v := range fields {
				cp[k] = v
			}
			mu.Lock()
			*audits = append(*audits, auditEntry{action: action, fields: cp})
			mu.Unlock()
		})

	if svc == nil {
		t.Fatalf("svc is nil")
	}

	return svcFixture{svc: svc, users: users, hasher: hasher, codec: codec, pub: pub, audits: audits}
}

func activeUser(id, email string) domain.User {
	now := time.Now().UTC()
	return domain.User{
		ID:           id,
		Email:        email,
		PasswordHash: "hash:correct-horse",
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

/*
Small assertions
*/

func requireDomainCode(t *testing.T, err error, wantCode string) {
	t.Helper()
	got := domainCode(err)
	if got != wantCode {
		t.Fatalf("expected domain code %q, got %q (err=%v)", wantCode, got, err)
	}
}

func requireFailure(t *testing.T, err error, want domain.AuthFailure) {
	t.Helper()
	got, ok := domain.FailureOf(err)
	if !ok {
		t.Fatalf("expected auth rejection %q, got %v", want, err)
	}
	if got != want {
		t.Fatalf("expected reason %q, got %q", want, got)
	}
}

func lastAudit(audits *[]auditEntry) (auditEntry, bool) {
	if audits == nil || len(*audits) == 0 {
		return auditEntry{}, false
	}
	return (*audits)[len(*audits)-1], true
}

func requireAuditAction(t *testing.T, audits *[]auditEntry, wantAction string) auditEntry {
	t.Helper()
	e, ok := lastAudit(audits)
	if !ok {
		t.Fatalf("expected audit entry, got none")
	}
	if e.action != wantAction {
		t.Fatalf("expected audit action %q, got %q", wantAction, e.action)
	}
	return e
}

func requireAuditField(t *testing.T, e auditEntry, k, want string) {
	t.Helper()
	got := strings.TrimSpace(e.fields[k])
	if got != want {
		t.Fatalf("expected audit field %q=%q, got %q (all=%v)", k, want, got, e.fields)
	}
}
