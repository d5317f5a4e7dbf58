package appstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/wildnest/wildnest/internal/discovery"
	"github.com/wildnest/wildnest/internal/friends"
	"github.com/wildnest/wildnest/internal/localstore"
	"github.com/wildnest/wildnest/internal/progression"
)

// StateKey is the local store key holding the whole State document.
const StateKey = "wildnest_state"

var (
	// ErrNoRemote is returned by operations that need the backend when none is configured.
	ErrNoRemote = errors.New("remote backend not configured")
	// ErrNotLoaded is returned when the engine is used before Load.
	ErrNotLoaded = errors.New("state not loaded")
)

// ProfileRemote is the remote profile store.
type ProfileRemote interface {
	FetchProfile(ctx context.Context, userID string) (RemoteProfile, error)
	UpdateDisplayName(ctx context.Context, userID, name string) error
	UpdateAvatar(ctx context.Context, userID, avatar string) error
}

// Identifier runs a remote identification for a base64 encoded image.
type Identifier interface {
	Identify(ctx context.Context, imageBase64 string) (discovery.Identification, error)
}

// Options configures an Engine. Remote and Identifier may be nil for offline use.
type Options struct {
	Store      localstore.Store
	Remote     ProfileRemote
	Identifier Identifier
	Logger     *slog.Logger
	Clock      func() time.Time
	Rand       *rand.Rand
}

// Engine serialises every mutation of State and persists the whole document after
// each one.
type Engine struct {
	mu sync.Mutex

	store      localstore.Store
	remote     ProfileRemote
	identifier Identifier
	logger     *slog.Logger
	now        func() time.Time
	rng        *rand.Rand

	state  State
	loaded bool
	// syncedFor is the user id already pulled this session.
	syncedFor string
}

func NewEngine(opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x5eed))
	}
	return &Engine{
		store:      opts.Store,
		remote:     opts.Remote,
		identifier: opts.Identifier,
		logger:     logger,
		now:        clock,
		rng:        rng,
	}
}

// Load reads the persisted document, seeding and persisting the initial state on
// first run.
func (e *Engine) Load(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	raw, err := e.store.Get(ctx, StateKey)
	switch {
	case errors.Is(err, localstore.ErrNotFound):
		state, migrated, err := e.loadLegacy(ctx)
		if err != nil {
			return err
		}
		if !migrated {
			state = Initial()
		}
		e.state, e.loaded = state.normalize(), true
		if migrated {
			// Older installs could persist discoveries ahead of their achievements.
			e.state = e.state.reevaluate()
		}
		if err := e.persistLocked(ctx); err != nil {
			return err
		}
		if migrated {
			e.dropLegacy(ctx)
		}
		return nil
	case err != nil:
		return fmt.Errorf("load state: %w", err)
	}

	var state State
	if err := json.Unmarshal(raw, &state); err != nil {
		return fmt.Errorf("decode state: %w", err)
	}
	e.state, e.loaded = state.normalize(), true
	return nil
}

// State returns a snapshot of the current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.clone()
}

// AddDiscovery records d and persists the result.
func (e *Engine) AddDiscovery(ctx context.Context, d discovery.Discovery) (Change, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.loaded {
		return Change{}, ErrNotLoaded
	}
	return e.addLocked(ctx, d)
}

// Identify sends the image to the remote identifier and records the result. A result
// whose post is already collected is returned without being added again; added
// reports which case applied.
func (e *Engine) Identify(ctx context.Context, imageBase64 string) (change Change, added bool, err error) {
	if e.identifier == nil {
		return Change{}, false, ErrNoRemote
	}

	res, err := e.identifier.Identify(ctx, imageBase64)
	if err != nil {
		e.logger.Warn("identification failed", "error", err)
		return Change{}, false, fmt.Errorf("identify: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.loaded {
		return Change{}, false, ErrNotLoaded
	}

	d := discovery.FromIdentification(res, e.now())
	if existing, ok := e.state.Discoveries.Find(d.ID); ok && d.ID != "" {
		return Change{Discovery: existing}, false, nil
	}
	change, err = e.addLocked(ctx, d)
	return change, err == nil, err
}

// IdentifyOffline records a field-guide discovery for imageRef without any network call.
func (e *Engine) IdentifyOffline(ctx context.Context, imageRef string) (Change, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.loaded {
		return Change{}, ErrNotLoaded
	}
	return e.addLocked(ctx, discovery.Generate(e.rng, imageRef, e.now()))
}

// ToggleFavorite flips a discovery's favorite flag. found is false for unknown ids,
// in which case nothing is written.
func (e *Engine) ToggleFavorite(ctx context.Context, id string) (found bool, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.loaded {
		return false, ErrNotLoaded
	}
	if !e.state.Discoveries.Contains(id) {
		return false, nil
	}
	e.state = e.state.ToggleFavorite(id)
	return true, e.persistLocked(ctx)
}

// ToggleFollow follows or unfollows a friend and returns the updated entry. found is
// false for unknown ids, in which case nothing is written.
func (e *Engine) ToggleFollow(ctx context.Context, id string) (f friends.Friend, found bool, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.loaded {
		return friends.Friend{}, false, ErrNotLoaded
	}
	next, found := e.state.ToggleFollow(id)
	if !found {
		return friends.Friend{}, false, nil
	}
	e.state = next
	f, _ = next.Friends.Find(id)
	return f, true, e.persistLocked(ctx)
}

// ClaimReward claims an achievement reward. A failed gate is not an error.
func (e *Engine) ClaimReward(ctx context.Context, id string) (awarded int, claimed bool, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.loaded {
		return 0, false, ErrNotLoaded
	}
	next, awarded, claimed := e.state.ClaimReward(id)
	if !claimed {
		return 0, false, nil
	}
	e.state = next
	return awarded, true, e.persistLocked(ctx)
}

// UpdateUserProfile applies patch locally and persists it, then pushes the name and
// avatar to the remote profile. Push failures are logged and recorded in
// User.Pending for the next sync; they are not returned.
func (e *Engine) UpdateUserProfile(ctx context.Context, patch ProfilePatch) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.loaded {
		return ErrNotLoaded
	}

	next, fields := e.state.ApplyPatch(patch)
	e.state = next
	if err := e.persistLocked(ctx); err != nil {
		return err
	}

	if len(fields) == 0 {
		return nil
	}
	if !e.canPushLocked() {
		// No remote this session: the next sync pushes these before pulling.
		e.state.User = markPending(e.state.User, fields...)
		return e.persistLocked(ctx)
	}

	for _, field := range fields {
		if err := e.pushLocked(ctx, field); err != nil {
			e.logger.Warn("profile push failed, will retry on next sync",
				"field", field, "user_id", e.state.User.ID, "error", err)
			e.state.User = markPending(e.state.User, field)
			continue
		}
		e.state.User = clearPending(e.state.User, field)
	}
	return e.persistLocked(ctx)
}

// SyncFromRemote retries pending pushes, then pulls the remote profile for userID and
// merges it. Fields still pending after the retry keep their local value.
func (e *Engine) SyncFromRemote(ctx context.Context, userID string) error {
	if e.remote == nil {
		return ErrNoRemote
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.loaded {
		return ErrNotLoaded
	}

	for _, field := range append([]string(nil), e.state.User.Pending...) {
		if err := e.pushLocked(ctx, field); err != nil {
			e.logger.Warn("pending profile push failed", "field", field, "error", err)
			continue
		}
		e.state.User = clearPending(e.state.User, field)
	}

	remote, err := e.remote.FetchProfile(ctx, userID)
	if err != nil {
		e.logger.Warn("profile pull failed", "user_id", userID, "error", err)
		if perr := e.persistLocked(ctx); perr != nil {
			return perr
		}
		return fmt.Errorf("fetch profile: %w", err)
	}

	e.state = e.state.ApplyProfile(remote, e.state.User.Pending...)
	return e.persistLocked(ctx)
}

// Authenticate binds the local state to a signed-in user. The local placeholder id is
// replaced once, and the first call for each user id in this session pulls the remote
// profile.
func (e *Engine) Authenticate(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}

	e.mu.Lock()
	if !e.loaded {
		e.mu.Unlock()
		return ErrNotLoaded
	}
	if e.state.User.ID == LocalUserID && userID != LocalUserID {
		e.state.User.ID = userID
		if err := e.persistLocked(ctx); err != nil {
			e.mu.Unlock()
			return err
		}
	}
	if e.syncedFor == userID {
		e.mu.Unlock()
		return nil
	}
	e.syncedFor = userID
	e.mu.Unlock()

	if e.remote == nil {
		return nil
	}
	return e.SyncFromRemote(ctx, userID)
}

// Reset restores the first-run state.
func (e *Engine) Reset(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state, e.loaded = Initial(), true
	e.syncedFor = ""
	return e.persistLocked(ctx)
}

func (e *Engine) addLocked(ctx context.Context, d discovery.Discovery) (Change, error) {
	next, change := e.state.AddDiscovery(d)
	e.state = next
	if err := e.persistLocked(ctx); err != nil {
		return change, err
	}
	for _, a := range change.NewlyUnlocked {
		e.logger.Debug("achievement unlocked", "achievement_id", a.ID, "reward", a.RewardPoints)
	}
	return change, nil
}

func (e *Engine) canPushLocked() bool {
	return e.remote != nil && e.state.User.ID != LocalUserID
}

func (e *Engine) pushLocked(ctx context.Context, field string) error {
	if !e.canPushLocked() {
		return ErrNoRemote
	}
	u := e.state.User
	switch field {
	case progression.FieldName:
		return e.remote.UpdateDisplayName(ctx, u.ID, u.Name)
	case progression.FieldAvatar:
		return e.remote.UpdateAvatar(ctx, u.ID, u.ProfilePicture)
	default:
		return fmt.Errorf("unknown profile field %q", field)
	}
}

func (e *Engine) persistLocked(ctx context.Context) error {
	raw, err := json.Marshal(e.state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := e.store.Put(ctx, StateKey, raw); err != nil {
		return fmt.Errorf("persist state: %w", err)
	}
	return nil
}
