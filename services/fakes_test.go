package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lborres/studysync/ai"
	"github.com/lborres/studysync/core"
	"github.com/lborres/studysync/pkg/cache"
	"github.com/lborres/studysync/pkg/crypto"
)

const testSecret = "test-secret-that-is-at-least-32-bytes!!"

// FakeStore is an in-memory core.StorageAdapter. Set errs[method] to make
// that method fail.
type FakeStore struct {
	mu         sync.Mutex
	seq        int
	now        time.Time
	users      map[string]*core.User
	materials  map[string]*core.Material
	flashcards map[string]*core.Flashcard
	errs       map[string]error
	calls      map[string]int
}

var _ core.StorageAdapter = (*FakeStore)(nil)

func NewFakeStore() *FakeStore {
	return &FakeStore{
		now:        time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		users:      make(map[string]*core.User),
		materials:  make(map[string]*core.Material),
		flashcards: make(map[string]*core.Flashcard),
		errs:       make(map[string]error),
		calls:      make(map[string]int),
	}
}

// enter records a call and returns the injected error, if any. Callers hold mu.
func (f *FakeStore) enter(method string) error {
	f.calls[method]++
	return f.errs[method]
}

func (f *FakeStore) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

// tick returns a strictly increasing timestamp so created_at ordering is stable
func (f *FakeStore) tick() time.Time {
	f.now = f.now.Add(time.Second)
	return f.now
}

func (f *FakeStore) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

func (f *FakeStore) CreateUser(_ context.Context, u *core.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("CreateUser"); err != nil {
		return err
	}
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return core.ErrUserExists
		}
	}
	if u.ID == "" {
		u.ID = f.nextID("user")
	}
	u.CreatedAt = f.tick()
	u.UpdatedAt = u.CreatedAt
	stored := *u
	f.users[u.ID] = &stored
	return nil
}

func (f *FakeStore) GetUserByID(_ context.Context, id string) (*core.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("GetUserByID"); err != nil {
		return nil, err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, core.ErrUserNotFound
	}
	out := *u
	return &out, nil
}

func (f *FakeStore) GetUserByEmail(_ context.Context, email string) (*core.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("GetUserByEmail"); err != nil {
		return nil, err
	}
	for _, u := range f.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, core.ErrUserNotFound
}

func (f *FakeStore) CreateMaterial(_ context.Context, m *core.Material) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("CreateMaterial"); err != nil {
		return err
	}
	m.ID = f.nextID("material")
	m.CreatedAt = f.tick()
	m.UpdatedAt = m.CreatedAt
	stored := *m
	f.materials[m.ID] = &stored
	return nil
}

func (f *FakeStore) GetMaterial(_ context.Context, ownerID, id string) (*core.Material, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("GetMaterial"); err != nil {
		return nil, err
	}
	m, ok := f.materials[id]
	if !ok || m.UserID != ownerID {
		return nil, core.ErrNotFound
	}
	out := *m
	return &out, nil
}

func (f *FakeStore) ListMaterials(_ context.Context, ownerID string, filter core.MaterialFilter) ([]*core.Material, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("ListMaterials"); err != nil {
		return nil, err
	}
	search := strings.ToLower(filter.Search)
	out := []*core.Material{}
	for _, m := range f.materials {
		if m.UserID != ownerID {
			continue
		}
		if filter.Subject != "" && m.Subject != filter.Subject {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(m.Title+" "+m.Content+" "+strings.Join(m.Tags, " ")), search) {
			continue
		}
		cp := *m
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *FakeStore) UpdateMaterial(_ context.Context, m *core.Material) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("UpdateMaterial"); err != nil {
		return err
	}
	stored, ok := f.materials[m.ID]
	if !ok || stored.UserID != m.UserID {
		return core.ErrNotFound
	}
	stored.Title, stored.Subject, stored.Content, stored.Tags = m.Title, m.Subject, m.Content, m.Tags
	stored.UpdatedAt = f.tick()
	return nil
}

func (f *FakeStore) SetMaterialSummary(_ context.Context, ownerID, id, summary string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("SetMaterialSummary"); err != nil {
		return err
	}
	stored, ok := f.materials[id]
	if !ok || stored.UserID != ownerID {
		return core.ErrNotFound
	}
	stored.AISummary = &summary
	stored.UpdatedAt = f.tick()
	return nil
}

func (f *FakeStore) DeleteMaterial(_ context.Context, ownerID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("DeleteMaterial"); err != nil {
		return err
	}
	stored, ok := f.materials[id]
	if !ok || stored.UserID != ownerID {
		return core.ErrNotFound
	}
	delete(f.materials, id)
	return nil
}

func (f *FakeStore) CountMaterials(_ context.Context, ownerID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("CountMaterials"); err != nil {
		return 0, err
	}
	n := 0
	for _, m := range f.materials {
		if m.UserID == ownerID {
			n++
		}
	}
	return n, nil
}

func (f *FakeStore) insertFlashcard(card *core.Flashcard) {
	card.ID = f.nextID("flashcard")
	card.CreatedAt = f.tick()
	card.UpdatedAt = card.CreatedAt
	stored := *card
	f.flashcards[card.ID] = &stored
}

func (f *FakeStore) CreateFlashcard(_ context.Context, card *core.Flashcard) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("CreateFlashcard"); err != nil {
		return err
	}
	f.insertFlashcard(card)
	return nil
}

func (f *FakeStore) CreateFlashcards(_ context.Context, cards []*core.Flashcard) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("CreateFlashcards"); err != nil {
		return err
	}
	for _, card := range cards {
		f.insertFlashcard(card)
	}
	return nil
}

func (f *FakeStore) ListFlashcards(_ context.Context, ownerID string, filter core.FlashcardFilter) ([]*core.Flashcard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("ListFlashcards"); err != nil {
		return nil, err
	}
	out := []*core.Flashcard{}
	for _, card := range f.flashcards {
		if card.UserID != ownerID {
			continue
		}
		if filter.Subject != "" && card.Subject != filter.Subject {
			continue
		}
		if filter.MaterialID != "" && (card.MaterialID == nil || *card.MaterialID != filter.MaterialID) {
			continue
		}
		cp := *card
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *FakeStore) UpdateFlashcard(_ context.Context, card *core.Flashcard) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("UpdateFlashcard"); err != nil {
		return err
	}
	stored, ok := f.flashcards[card.ID]
	if !ok || stored.UserID != card.UserID {
		return core.ErrNotFound
	}
	stored.Question, stored.Answer, stored.Subject, stored.Difficulty = card.Question, card.Answer, card.Subject, card.Difficulty
	stored.UpdatedAt = f.tick()
	return nil
}

func (f *FakeStore) DeleteFlashcard(_ context.Context, ownerID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("DeleteFlashcard"); err != nil {
		return err
	}
	stored, ok := f.flashcards[id]
	if !ok || stored.UserID != ownerID {
		return core.ErrNotFound
	}
	delete(f.flashcards, id)
	return nil
}

func (f *FakeStore) CountFlashcards(_ context.Context, ownerID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("CountFlashcards"); err != nil {
		return 0, err
	}
	n := 0
	for _, card := range f.flashcards {
		if card.UserID == ownerID {
			n++
		}
	}
	return n, nil
}

// Flashcard returns a stored card by id, bypassing ownership
func (f *FakeStore) Flashcard(id string) (*core.Flashcard, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	card, ok := f.flashcards[id]
	if !ok {
		return nil, false
	}
	out := *card
	return &out, true
}

// RecordingViews wraps the in-memory view cache and records invalidated paths
type RecordingViews struct {
	*cache.InMemoryViewCache
	mu          sync.Mutex
	invalidated []string
	invalidErr  error
}

func NewRecordingViews() *RecordingViews {
	return &RecordingViews{
		InMemoryViewCache: cache.NewInMemoryViewCache(core.CacheConfig{TTL: time.Minute, MaxSize: 100}),
	}
}

func (v *RecordingViews) Invalidate(ctx context.Context, userID string, paths ...string) error {
	v.mu.Lock()
	v.invalidated = append(v.invalidated, paths...)
	err := v.invalidErr
	v.mu.Unlock()
	if err != nil {
		return err
	}
	return v.InMemoryViewCache.Invalidate(ctx, userID, paths...)
}

func (v *RecordingViews) Invalidated() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := append([]string(nil), v.invalidated...)
	sort.Strings(out)
	return out
}

func (v *RecordingViews) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.invalidated = nil
}

// FakeGenerator returns a canned reply or error and records prompts
type FakeGenerator struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []string
}

func (g *FakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

var errStoreDown = errors.New("store unavailable")

// testEnv bundles a fully wired set of services over fakes
type testEnv struct {
	store      *FakeStore
	views      *RecordingViews
	gen        *FakeGenerator
	now        time.Time
	auth       *AuthService
	materials  *MaterialService
	flashcards *FlashcardService
	ai         *AIService
	dashboard  *DashboardService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		store: NewFakeStore(),
		views: NewRecordingViews(),
		gen:   &FakeGenerator{},
		now:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	signer, err := crypto.NewTokenSigner(testSecret, crypto.WithClock(func() time.Time { return env.now }))
	if err != nil {
		t.Fatalf("NewTokenSigner() error = %v", err)
	}
	sessions := NewSessionManager(core.DefaultSessionConfig(), signer)
	hasher := crypto.NewArgon2(crypto.WithMemory(8*1024), crypto.WithIterations(1))

	env.auth = NewAuthService(env.store, hasher, sessions, nil, nil)
	env.materials = NewMaterialService(env.store, env.auth, env.views, nil, nil)
	env.flashcards = NewFlashcardService(env.store, env.auth, env.views, nil, nil)
	env.ai = NewAIService(env.store, env.store, ai.NewBridge(env.gen), env.auth, env.views, nil, nil)
	env.dashboard = NewDashboardService(env.store, env.store, env.auth, env.views, nil, nil)
	return env
}

// signUp registers a user and returns its session token
func (e *testEnv) signUp(t *testing.T, name, email string) (string, *core.SessionUser) {
	t.Helper()

	res, token := e.auth.Register(context.Background(), core.Form{
		"name":     name,
		"email":    email,
		"password": "secret123",
	})
	if !res.Success || token == nil {
		t.Fatalf("Register(%q) failed: %s", email, res.Error)
	}
	return token.Value, res.Data
}

// createMaterial stores a valid material and returns its id
func (e *testEnv) createMaterial(t *testing.T, token, title string) string {
	t.Helper()

	res := e.materials.Create(context.Background(), token, core.Form{
		"title":   title,
		"subject": "Biology",
		"content": "Cells are the basic unit of life.",
		"tags":    "cells, basics",
	})
	if !res.Success {
		t.Fatalf("Create material %q failed: %s", title, res.Error)
	}
	return res.Data.ID
}
