package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Joseda-hg/lazyplan/internal/model"
)

type memoryUsers struct {
	byID map[string]model.User
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{byID: map[string]model.User{}}
}

func (m *memoryUsers) CreateUser(_ context.Context, user model.User) (model.User, error) {
	m.byID[user.ID] = user
	return user, nil
}

func (m *memoryUsers) GetUser(_ context.Context, userID string) (model.User, error) {
	user, ok := m.byID[userID]
	if !ok {
		return model.User{}, fmt.Errorf("user %s: not found", userID)
	}
	return user, nil
}

func (m *memoryUsers) UpdateUser(_ context.Context, user model.User) (model.User, error) {
	m.byID[user.ID] = user
	return user, nil
}

func (m *memoryUsers) UserByEmail(_ context.Context, email string) (model.User, error) {
	for _, user := range m.byID {
		if user.Email == strings.ToLower(email) {
			return user, nil
		}
	}
	return model.User{}, fmt.Errorf("user %s: not found", email)
}

func newTestService(t *testing.T) (*Service, *memoryUsers) {
	t.Helper()
	issuer, err := NewIssuer("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	users := newMemoryUsers()
	return NewService(users, issuer), users
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "s3cret" {
		t.Fatalf("expected password to be hashed")
	}
	if !CheckPassword(hash, "s3cret") {
		t.Fatalf("expected password to match")
	}
	if CheckPassword(hash, "wrong") {
		t.Fatalf("expected wrong password to fail")
	}
}

func TestIssuerRoundTrip(t *testing.T) {
	issuer, err := NewIssuer("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	user := model.User{ID: "u-1", Email: "ada@example.com", Role: model.RoleManager}

	token, err := issuer.Issue(user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	viewer, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if viewer.UserID != "u-1" || viewer.Role != model.RoleManager || viewer.Email != "ada@example.com" {
		t.Fatalf("unexpected viewer: %+v", viewer)
	}

	t.Run("expired", func(t *testing.T) {
		issuer.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		defer func() { issuer.now = time.Now }()
		if _, err := issuer.Verify(token); !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("expected ErrUnauthenticated, got %v", err)
		}
	})

	t.Run("other secret", func(t *testing.T) {
		other, err := NewIssuer("another-secret", time.Hour)
		if err != nil {
			t.Fatalf("new issuer: %v", err)
		}
		if _, err := other.Verify(token); !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("expected ErrUnauthenticated, got %v", err)
		}
	})

	if _, err := NewIssuer("  ", time.Hour); err == nil {
		t.Fatalf("expected empty secret to be rejected")
	}
}

func TestViewerRoles(t *testing.T) {
	admin := Viewer{UserID: "a", Role: model.RoleAdmin}
	manager := Viewer{UserID: "m", Role: model.RoleManager}
	user := Viewer{UserID: "u", Role: model.RoleUser}

	if !admin.CanAdminister() || !admin.CanManage() {
		t.Fatalf("expected admin to hold every role")
	}
	if manager.CanAdminister() || !manager.CanManage() {
		t.Fatalf("expected manager to manage but not administer")
	}
	if user.CanManage() {
		t.Fatalf("expected user not to manage")
	}
	if err := user.Require(model.RoleManager); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := (Viewer{}).Require(model.RoleUser); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestServiceLoginAndAuthenticate(t *testing.T) {
	service, users := newTestService(t)
	ctx := context.Background()

	created, err := service.CreateUser(ctx, model.UserInput{Email: "ada@example.com", Role: "ADMIN"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if !CheckPassword(users.byID[created.ID].PasswordHash, DefaultPassword) {
		t.Fatalf("expected default password to be set")
	}

	token, user, err := service.Login(ctx, "ADA@example.com", DefaultPassword)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.ID != created.ID || token == "" {
		t.Fatalf("unexpected login result: %q %+v", token, user)
	}

	viewer, err := service.Authenticate(ctx, token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if !viewer.CanAdminister() {
		t.Fatalf("expected admin viewer, got %+v", viewer)
	}

	if _, _, err := service.Login(ctx, "ada@example.com", "nope"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := service.Login(ctx, "nobody@example.com", "nope"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
	var validationErr *model.ValidationError
	if _, _, err := service.Login(ctx, "", ""); !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error for missing credentials, got %v", err)
	}

	delete(users.byID, created.ID)
	if _, err := service.Authenticate(ctx, token); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected deleted user to be rejected, got %v", err)
	}
}

func TestServiceUpdateUserRehashesPassword(t *testing.T) {
	service, users := newTestService(t)
	ctx := context.Background()

	created, err := service.CreateUser(ctx, model.UserInput{Email: "ada@example.com", Password: "first"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	updated, err := service.UpdateUser(ctx, created.ID, model.UserPatch{
		Password: model.Some("second"),
		Role:     model.Some("manager"),
	})
	if err != nil {
		t.Fatalf("update user: %v", err)
	}
	if updated.Role != model.RoleManager {
		t.Fatalf("expected manager role, got %s", updated.Role)
	}
	stored := users.byID[created.ID]
	if !CheckPassword(stored.PasswordHash, "second") || CheckPassword(stored.PasswordHash, "first") {
		t.Fatalf("expected password to be rehashed")
	}
}
