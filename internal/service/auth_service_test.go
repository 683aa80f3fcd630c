package service

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/NirVa-gh/AppAuth/internal/auth"
	"github.com/NirVa-gh/AppAuth/internal/config"
	"github.com/NirVa-gh/AppAuth/internal/domain"
	"github.com/NirVa-gh/AppAuth/pkg/util"
)

type stubUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*domain.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[int64]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return util.NewConflict("username or email already taken", nil)
		}
	}
	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = time.Now().UTC()
	r.users[user.ID] = cloneUser(user)
	return nil
}

func (r *stubUserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, sql.ErrNoRows
}

func (r *stubUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			return cloneUser(u), nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *stubUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *stubUserRepo) ExistsByUsernameOrEmail(_ context.Context, username, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username || u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubUserRepo) setPartner(id int64, partner bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.IsPartner = partner
	}
}

func (r *stubUserRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

func newTestAuthService(repo *stubUserRepo) *AuthService {
	cfg := config.Config{
		Auth: config.AuthConfig{
			JWTSecret:     "test-secret",
			TokenTTLHours: 24,
			BcryptCost:    bcrypt.MinCost,
		},
	}
	return NewAuthService(cfg, AuthDependencies{UserRepo: repo})
}

func assertStatus(t *testing.T, err error, want int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with status %d, got nil", want)
	}
	de := util.ToDomainError(err)
	if de.HTTPStatus != want {
		t.Fatalf("expected status %d, got %d (%v)", want, de.HTTPStatus, err)
	}
}

func TestRegisterIssuesResolvableToken(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestAuthService(repo)

	user, token, _, err := svc.Register(context.Background(), "alice", "alice@x.com", "secret1")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.ID == 0 {
		t.Fatalf("expected assigned user id")
	}
	if user.PasswordHash == "secret1" {
		t.Fatalf("expected password to be hashed")
	}

	claims, err := svc.TokenManager().Parse(token)
	if err != nil {
		t.Fatalf("issued token did not verify: %v", err)
	}
	if claims.Username != "alice" {
		t.Fatalf("token resolves to %q, want alice", claims.Username)
	}
	if claims.UserID == nil || *claims.UserID != user.ID {
		t.Fatalf("token user id claim %v, want %d", claims.UserID, user.ID)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestAuthService(newStubUserRepo())

	_, _, _, err := svc.Register(context.Background(), "", "a@x.com", "secret1")
	assertStatus(t, err, http.StatusBadRequest)

	_, _, _, err = svc.Register(context.Background(), "bob", "b@x.com", "short")
	assertStatus(t, err, http.StatusBadRequest)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestAuthService(repo)

	if _, _, _, err := svc.Register(context.Background(), "alice", "alice@x.com", "secret1"); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}

	_, _, _, err := svc.Register(context.Background(), "alice", "other@x.com", "secret1")
	assertStatus(t, err, http.StatusConflict)

	if repo.count() != 1 {
		t.Fatalf("expected exactly one stored user, got %d", repo.count())
	}
}

func TestLoginSuccess(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestAuthService(repo)

	if _, _, _, err := svc.Register(context.Background(), "carol", "carol@x.com", "s3cret1"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	user, token, _, err := svc.Login(context.Background(), "carol", "s3cret1")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if token == "" {
		t.Fatalf("expected token, got empty")
	}
	if user.IsPartner {
		t.Fatalf("expected regular account")
	}
}

func TestLoginUnknownUser(t *testing.T) {
	svc := newTestAuthService(newStubUserRepo())
	_, _, _, err := svc.Login(context.Background(), "ghost", "whatever")
	assertStatus(t, err, http.StatusNotFound)
}

// stubLoginCounter backs the login throttle with a plain map.
type stubLoginCounter struct {
	counts map[string]int64
}

func newStubLoginCounter() *stubLoginCounter {
	return &stubLoginCounter{counts: make(map[string]int64)}
}

func (s *stubLoginCounter) Get(_ context.Context, key string) *redis.StringCmd {
	count, ok := s.counts[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(strconv.FormatInt(count, 10), nil)
}

func (s *stubLoginCounter) Incr(_ context.Context, key string) *redis.IntCmd {
	s.counts[key]++
	return redis.NewIntResult(s.counts[key], nil)
}

func (s *stubLoginCounter) Expire(_ context.Context, key string, _ time.Duration) *redis.BoolCmd {
	return redis.NewBoolResult(true, nil)
}

func (s *stubLoginCounter) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var removed int64
	for _, key := range keys {
		if _, ok := s.counts[key]; ok {
			delete(s.counts, key)
			removed++
		}
	}
	return redis.NewIntResult(removed, nil)
}

func TestLoginThrottledAfterRepeatedFailures(t *testing.T) {
	repo := newStubUserRepo()
	cfg := config.Config{
		Auth: config.AuthConfig{
			JWTSecret:     "test-secret",
			TokenTTLHours: 24,
			BcryptCost:    bcrypt.MinCost,
		},
	}
	throttle := auth.NewLoginThrottle(newStubLoginCounter(), 2, time.Minute, zap.NewNop())
	svc := NewAuthService(cfg, AuthDependencies{UserRepo: repo, Throttle: throttle})

	if _, _, _, err := svc.Register(context.Background(), "eve", "eve@x.com", "secret1"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		_, _, _, err := svc.Login(context.Background(), "eve", "wrong-password")
		assertStatus(t, err, http.StatusUnauthorized)
	}

	// Even the correct password is refused once the limit trips.
	_, _, _, err := svc.Login(context.Background(), "eve", "secret1")
	assertStatus(t, err, http.StatusTooManyRequests)
}

func TestLoginSuccessResetsThrottle(t *testing.T) {
	repo := newStubUserRepo()
	cfg := config.Config{
		Auth: config.AuthConfig{
			JWTSecret:     "test-secret",
			TokenTTLHours: 24,
			BcryptCost:    bcrypt.MinCost,
		},
	}
	counter := newStubLoginCounter()
	throttle := auth.NewLoginThrottle(counter, 2, time.Minute, zap.NewNop())
	svc := NewAuthService(cfg, AuthDependencies{UserRepo: repo, Throttle: throttle})

	if _, _, _, err := svc.Register(context.Background(), "frank", "frank@x.com", "secret1"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	_, _, _, err := svc.Login(context.Background(), "frank", "wrong-password")
	assertStatus(t, err, http.StatusUnauthorized)

	if _, _, _, err := svc.Login(context.Background(), "frank", "secret1"); err != nil {
		t.Fatalf("login below the limit failed: %v", err)
	}
	if len(counter.counts) != 0 {
		t.Fatalf("successful login must clear the failure counter, got %v", counter.counts)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestAuthService(repo)

	if _, _, _, err := svc.Register(context.Background(), "dave", "dave@x.com", "secret1"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	_, _, _, err := svc.Login(context.Background(), "dave", "wrong-password")
	assertStatus(t, err, http.StatusUnauthorized)
}
