package bundlestore

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/hcmut-portal/portal-api/internal/core/domain"
)

// ---------------------------------------------------------------------------
// In-memory backend
// ---------------------------------------------------------------------------

type memBackend struct {
	mu       sync.Mutex
	docs     map[domain.Role]domain.Bundle
	readErr  error
	writeErr error
	writes   int
}

func newMemBackend() *memBackend {
	b := &memBackend{docs: make(map[domain.Role]domain.Bundle)}
	for _, role := range domain.Roles {
		b.docs[role] = fixture(role)
	}
	return b
}

func fixture(role domain.Role) domain.Bundle {
	return domain.Bundle{
		"user": map[string]any{
			"identifier": role.String() + "-1",
			"name":       "Demo " + role.String(),
			"email":      role.String() + "@hcmut.edu.vn",
			"title":      "Demo",
			"avatar":     "/images/" + role.String() + ".png",
			"role":       role.String(),
		},
		"announcements": map[string]any{
			"items": []any{map[string]any{"id": "ann-1"}},
		},
	}
}

func (b *memBackend) Read(_ context.Context, role domain.Role) (domain.Bundle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.readErr != nil {
		return nil, b.readErr
	}
	doc, ok := b.docs[role]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return doc.Clone(), nil
}

func (b *memBackend) Write(_ context.Context, role domain.Role, doc domain.Bundle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.writeErr != nil {
		return b.writeErr
	}
	b.docs[role] = doc.Clone()
	b.writes++
	return nil
}

func (b *memBackend) Ping(context.Context) error { return b.readErr }

func (b *memBackend) stored(role domain.Role) domain.Bundle {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.docs[role].Clone()
}

// gatedBackend lets one Read fetch its document and then parks it until
// release is closed.
type gatedBackend struct {
	*memBackend
	once    sync.Once
	gated   chan struct{}
	release chan struct{}
	armed   bool
}

func (b *gatedBackend) Read(ctx context.Context, role domain.Role) (domain.Bundle, error) {
	doc, err := b.memBackend.Read(ctx, role)
	if b.armed {
		b.once.Do(func() {
			close(b.gated)
			<-b.release
		})
	}
	return doc, err
}

func bootstrapped(t *testing.T, backend *memBackend) *Store {
	t.Helper()
	s := New(backend, zerolog.Nop())
	if err := s.Bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	return s
}

// ---------------------------------------------------------------------------
// Load / Get
// ---------------------------------------------------------------------------

func TestStore_Get_RoleMatches(t *testing.T) {
	s := bootstrapped(t, newMemBackend())

	for _, role := range domain.Roles {
		doc, err := s.Get(context.Background(), role)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", role, err)
		}
		u, ok := doc.User()
		if !ok || u.Role != role {
			t.Errorf("%s: expected user.role %q, got %+v", role, role, u)
		}
	}
}

func TestStore_Get_Idempotent(t *testing.T) {
	s := bootstrapped(t, newMemBackend())

	first, _ := s.Get(context.Background(), domain.RoleStudent)
	second, _ := s.Get(context.Background(), domain.RoleStudent)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("two reads without an update must be equal")
	}
}

func TestStore_Get_DefensiveCopy(t *testing.T) {
	backend := newMemBackend()
	s := bootstrapped(t, backend)

	doc, _ := s.Get(context.Background(), domain.RoleTutor)
	doc["user"].(map[string]any)["name"] = "mutated"
	doc["announcements"].(map[string]any)["items"] = nil

	// Force the cached path so the check targets the store's own copy.
	backend.readErr = errors.New("disk gone")
	again, err := s.Get(context.Background(), domain.RoleTutor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u, _ := again.User(); u.Name != "Demo tutor" {
		t.Errorf("caller mutation leaked into cache: %q", u.Name)
	}
	if again["announcements"].(map[string]any)["items"] == nil {
		t.Error("caller mutation leaked into nested cache data")
	}
}

func TestStore_Get_FallsBackToCache(t *testing.T) {
	backend := newMemBackend()
	s := bootstrapped(t, backend)

	want, _ := s.Get(context.Background(), domain.RoleStaff)
	backend.readErr = errors.New("transient")

	got, err := s.Get(context.Background(), domain.RoleStaff)
	if err != nil {
		t.Fatalf("expected cached copy, got error %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Error("cached copy differs from last loaded document")
	}
}

func TestStore_Get_NoCacheReturnsError(t *testing.T) {
	backend := newMemBackend()
	delete(backend.docs, domain.RoleStaff)
	s := New(backend, zerolog.Nop())

	if _, err := s.Get(context.Background(), domain.RoleStaff); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_Get_UnknownRole(t *testing.T) {
	s := bootstrapped(t, newMemBackend())

	if _, err := s.Get(context.Background(), domain.Role("admin")); !errors.Is(err, domain.ErrUnknownRole) {
		t.Fatalf("expected ErrUnknownRole, got %v", err)
	}
}

func TestStore_Load_AppliesAvatarOverride(t *testing.T) {
	backend := newMemBackend()
	doc := backend.docs[domain.RoleStudent]
	doc["avatars"] = map[string]any{"student@hcmut.edu.vn": "/images/profile-new.png"}

	s := bootstrapped(t, backend)

	got, _ := s.Get(context.Background(), domain.RoleStudent)
	if u, _ := got.User(); u.Avatar != "/images/profile-new.png" {
		t.Errorf("expected side-table avatar, got %q", u.Avatar)
	}
	if u, _ := s.User(domain.RoleStudent); u.Avatar != "/images/profile-new.png" {
		t.Errorf("cached user must carry overridden avatar, got %q", u.Avatar)
	}
}

// ---------------------------------------------------------------------------
// Bootstrap
// ---------------------------------------------------------------------------

func TestStore_Bootstrap_MissingDocument(t *testing.T) {
	backend := newMemBackend()
	delete(backend.docs, domain.RoleTutor)

	err := New(backend, zerolog.Nop()).Bootstrap(context.Background())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_Bootstrap_SeedsMissingDocuments(t *testing.T) {
	backend := newMemBackend()
	delete(backend.docs, domain.RoleTutor)
	seed := newMemBackend()

	s := New(backend, zerolog.Nop(), WithSeed(seed))
	if err := s.Bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if backend.writes != 1 {
		t.Errorf("expected exactly one seeded write, got %d", backend.writes)
	}
	if _, err := s.User(domain.RoleTutor); err != nil {
		t.Errorf("seeded role must have a cached user: %v", err)
	}
}

// ---------------------------------------------------------------------------
// Update
// ---------------------------------------------------------------------------

func TestStore_Update_RoundTrip(t *testing.T) {
	backend := newMemBackend()
	s := bootstrapped(t, backend)

	doc := fixture(domain.RoleStudent)
	doc["user"].(map[string]any)["avatar"] = "X"
	doc["courseMatching"] = map[string]any{"title": "new"}

	if err := s.Update(context.Background(), domain.RoleStudent, doc); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := s.Get(context.Background(), domain.RoleStudent)
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	want := doc.Clone()
	want["avatars"] = map[string]any{"student@hcmut.edu.vn": "X"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip mismatch:\n got %v\nwant %v", got, want)
	}
	if got.Avatars()["student@hcmut.edu.vn"] != "X" {
		t.Error("side-table must hold the written avatar")
	}
	if u, _ := got.User(); u.Avatar != "X" {
		t.Errorf("expected user.avatar X, got %q", u.Avatar)
	}
}

func TestStore_Update_WriteThrough(t *testing.T) {
	backend := newMemBackend()
	s := bootstrapped(t, backend)

	doc := fixture(domain.RoleTutor)
	if err := s.Update(context.Background(), domain.RoleTutor, doc); err != nil {
		t.Fatalf("update: %v", err)
	}

	backend.readErr = errors.New("offline")
	cached, _ := s.Get(context.Background(), domain.RoleTutor)
	if !reflect.DeepEqual(cached, backend.stored(domain.RoleTutor)) {
		t.Error("cache and backend must agree after update")
	}
}

func TestStore_Update_FullOverwrite(t *testing.T) {
	s := bootstrapped(t, newMemBackend())

	doc := domain.Bundle{"user": fixture(domain.RoleStaff)["user"]}
	if err := s.Update(context.Background(), domain.RoleStaff, doc); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, _ := s.Get(context.Background(), domain.RoleStaff)
	if _, ok := got["announcements"]; ok {
		t.Error("fields omitted by the caller must be dropped, not merged")
	}
}

func TestStore_Update_AvatarNeverRegresses(t *testing.T) {
	backend := newMemBackend()
	s := bootstrapped(t, backend)
	ctx := context.Background()

	doc := fixture(domain.RoleStudent)
	doc["user"].(map[string]any)["avatar"] = "/images/v2.png"
	if err := s.Update(ctx, domain.RoleStudent, doc); err != nil {
		t.Fatalf("update: %v", err)
	}

	// Another writer puts back a document with the stale avatar but keeps
	// the side-table; the next load must still surface the newer avatar.
	stale := fixture(domain.RoleStudent)
	stale["avatars"] = map[string]any{"student@hcmut.edu.vn": "/images/v2.png"}
	backend.docs[domain.RoleStudent] = stale

	got, err := s.Get(ctx, domain.RoleStudent)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if u, _ := got.User(); u.Avatar != "/images/v2.png" {
		t.Errorf("avatar regressed to %q", u.Avatar)
	}
}

func TestStore_Update_ClearedAvatarStaysCleared(t *testing.T) {
	s := bootstrapped(t, newMemBackend())
	ctx := context.Background()

	for _, avatar := range []string{"/images/x.png", ""} {
		doc, err := s.Get(ctx, domain.RoleStudent)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		doc["user"].(map[string]any)["avatar"] = avatar
		if err := s.Update(ctx, domain.RoleStudent, doc); err != nil {
			t.Fatalf("update %q: %v", avatar, err)
		}
	}

	got, err := s.Get(ctx, domain.RoleStudent)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if u, _ := got.User(); u.Avatar != "" {
		t.Errorf("expected cleared avatar, got %q", u.Avatar)
	}
	if _, ok := got.Avatars()["student@hcmut.edu.vn"]; ok {
		t.Error("side-table still holds the old avatar")
	}
}

func TestStore_Update_WinsOverConcurrentLoad(t *testing.T) {
	mem := newMemBackend()
	backend := &gatedBackend{memBackend: mem, gated: make(chan struct{}), release: make(chan struct{})}
	s := New(backend, zerolog.Nop())
	ctx := context.Background()
	if err := s.Bootstrap(ctx); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	backend.armed = true

	loaded := make(chan domain.Bundle, 1)
	go func() {
		doc, err := s.Get(ctx, domain.RoleStudent)
		if err != nil {
			t.Errorf("get: %v", err)
		}
		loaded <- doc
	}()
	<-backend.gated

	renamed := fixture(domain.RoleStudent)
	renamed["user"].(map[string]any)["name"] = "Renamed"
	if err := s.Update(ctx, domain.RoleStudent, renamed); err != nil {
		t.Fatalf("update: %v", err)
	}
	close(backend.release)

	if u, _ := (<-loaded).User(); u.Name != "Renamed" {
		t.Errorf("in-flight load returned stale name %q", u.Name)
	}
	if u, err := s.User(domain.RoleStudent); err != nil || u.Name != "Renamed" {
		t.Errorf("cached user regressed: %+v, %v", u, err)
	}

	mem.mu.Lock()
	mem.readErr = errors.New("backend down")
	mem.mu.Unlock()
	got, err := s.Get(ctx, domain.RoleStudent)
	if err != nil {
		t.Fatalf("fallback get: %v", err)
	}
	if u, _ := got.User(); u.Name != "Renamed" {
		t.Errorf("fallback served stale name %q", u.Name)
	}
}

func TestStore_Update_RefreshesUser(t *testing.T) {
	s := bootstrapped(t, newMemBackend())

	doc := fixture(domain.RoleTutor)
	doc["user"].(map[string]any)["name"] = "Renamed"
	_ = s.Update(context.Background(), domain.RoleTutor, doc)

	u, err := s.User(domain.RoleTutor)
	if err != nil || u.Name != "Renamed" {
		t.Fatalf("expected refreshed user, got %+v (%v)", u, err)
	}
}

func TestStore_Update_WithoutUserKeepsCachedUser(t *testing.T) {
	s := bootstrapped(t, newMemBackend())

	if err := s.Update(context.Background(), domain.RoleTutor, domain.Bundle{"only": "payload"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if u, err := s.User(domain.RoleTutor); err != nil || u.Identifier != "tutor-1" {
		t.Fatalf("cached user must survive a user-less update, got %+v (%v)", u, err)
	}
}

func TestStore_Update_BackendFailureLeavesCache(t *testing.T) {
	backend := newMemBackend()
	s := bootstrapped(t, backend)
	before, _ := s.Get(context.Background(), domain.RoleStaff)

	backend.writeErr = errors.New("read-only fs")
	err := s.Update(context.Background(), domain.RoleStaff, domain.Bundle{"x": 1.0})
	if err == nil {
		t.Fatal("expected update error")
	}

	backend.readErr = errors.New("offline")
	after, _ := s.Get(context.Background(), domain.RoleStaff)
	if !reflect.DeepEqual(before, after) {
		t.Error("failed update must not change the cache")
	}
}

func TestStore_Update_DoesNotAliasCallerDocument(t *testing.T) {
	backend := newMemBackend()
	s := bootstrapped(t, backend)

	doc := fixture(domain.RoleStudent)
	_ = s.Update(context.Background(), domain.RoleStudent, doc)
	doc["user"].(map[string]any)["name"] = "after the fact"

	backend.readErr = errors.New("offline")
	got, _ := s.Get(context.Background(), domain.RoleStudent)
	if u, _ := got.User(); u.Name == "after the fact" {
		t.Error("store must not keep a reference to the caller's document")
	}
}

// ---------------------------------------------------------------------------
// FindRoleByEmail
// ---------------------------------------------------------------------------

func TestStore_FindRoleByEmail(t *testing.T) {
	s := New(newMemBackend(), zerolog.Nop())

	cases := map[string]domain.Role{
		"student@hcmut.edu.vn":     domain.RoleStudent,
		"student2024@hcmut.edu.vn": domain.RoleStudent,
		"Tutor99@hcmut.edu.vn":     domain.RoleTutor,
		"random@hcmut.edu.vn":      domain.RoleStaff,
		"studen@hcmut.edu.vn":      domain.RoleStaff,
		"":                         domain.RoleStaff,
	}
	for email, want := range cases {
		if got := s.FindRoleByEmail(email); got != want {
			t.Errorf("%q: expected %q, got %q", email, want, got)
		}
	}
}

func TestStore_User_NotBootstrapped(t *testing.T) {
	s := New(newMemBackend(), zerolog.Nop())

	if _, err := s.User(domain.RoleStudent); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
