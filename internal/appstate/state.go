// Package appstate owns the local user's discoveries, achievements and profile, and
// keeps them persisted as one document.
package appstate

import (
	"slices"
	"strings"

	"github.com/wildnest/wildnest/internal/achievement"
	"github.com/wildnest/wildnest/internal/discovery"
	"github.com/wildnest/wildnest/internal/friends"
	"github.com/wildnest/wildnest/internal/progression"
)

// LocalUserID identifies a user that has not signed in yet.
const LocalUserID = "user-1"

// DefaultAvatar is shown until the user picks a profile picture.
const DefaultAvatar = "https://images.unsplash.com/photo-1535083783855-76ae62b2914e?q=80&w=200&auto=format&fit=crop"

// State is the complete local document.
type State struct {
	Discoveries  discovery.Collection      `json:"discoveries"`
	Achievements []achievement.Achievement `json:"achievements"`
	User         progression.User          `json:"user"`
	Friends      friends.List              `json:"friends"`
}

// Initial is the first-run state.
func Initial() State {
	return State{
		Discoveries:  discovery.Collection{},
		Achievements: achievement.Catalog(),
		User: progression.User{
			ID:             LocalUserID,
			Name:           "Wildlife Explorer",
			Username:       "wildlife_explorer",
			ProfilePicture: DefaultAvatar,
			Level:          1,
			Rank:           progression.Beginner,
			Badges:         []progression.Badge{},
			Bio:            "Passionate about wildlife discovery and conservation",
		},
		Friends: friends.Seed(),
	}
}

// Change summarises what a discovery did to the state.
type Change struct {
	Discovery     discovery.Discovery
	ScorePoints   int
	UnlockPoints  int
	NewlyUnlocked []achievement.Achievement
}

// Total is every point the discovery earned.
func (c Change) Total() int { return c.ScorePoints + c.UnlockPoints }

// AddDiscovery appends d, applies its score, evaluates achievements, awards unlock
// rewards and refreshes badges.
func (s State) AddDiscovery(d discovery.Discovery) (State, Change) {
	next := s.clone()
	next.Discoveries = next.Discoveries.Append(d)
	next.User = progression.ApplyPoints(next.User, d.Points)

	before := next.Achievements
	evaluated, unlockPoints := achievement.Evaluate(next.Discoveries, before)
	next.Achievements = evaluated
	next.User = progression.ApplyPoints(next.User, unlockPoints)
	next.User.Badges = progression.DeriveBadges(next.Achievements)

	return next, Change{
		Discovery:     d,
		ScorePoints:   d.Points,
		UnlockPoints:  unlockPoints,
		NewlyUnlocked: newlyUnlocked(before, evaluated),
	}
}

// ToggleFavorite flips the favorite flag on one discovery.
func (s State) ToggleFavorite(id string) State {
	next := s.clone()
	next.Discoveries = next.Discoveries.ToggleFavorite(id)
	return next
}

// ToggleFollow follows or unfollows a friend. found is false for unknown ids.
func (s State) ToggleFollow(id string) (next State, found bool) {
	list, found := s.Friends.ToggleFollow(id)
	if !found {
		return s, false
	}
	next = s.clone()
	next.Friends = list
	return next, true
}

// ClaimReward claims an unlocked achievement's reward and adds its points. It is a
// no-op returning false when the achievement is locked, already claimed or unknown.
func (s State) ClaimReward(id string) (State, int, bool) {
	claimedState, awarded, ok := achievement.Claim(s.Achievements, id)
	if !ok {
		return s, 0, false
	}
	next := s.clone()
	next.Achievements = claimedState
	next.User = progression.ApplyPoints(next.User, awarded)
	next.User.Badges = progression.DeriveBadges(next.Achievements)
	return next, awarded, true
}

// RemoteProfile is the subset of the remote profile record merged into local state.
type RemoteProfile struct {
	ID              string
	Username        string
	DisplayName     string
	Email           string
	ProfileImageURL string
	Points          int
	Bio             string
}

// ApplyProfile merges a remote profile field by field: a non-empty remote value
// replaces the local one, an empty one keeps it. Fields in skip are left alone.
// Zero remote points count as absent.
func (s State) ApplyProfile(remote RemoteProfile, skip ...string) State {
	next := s.clone()
	u := &next.User
	if remote.DisplayName != "" && !slices.Contains(skip, progression.FieldName) {
		u.Name = remote.DisplayName
	}
	if remote.ProfileImageURL != "" && !slices.Contains(skip, progression.FieldAvatar) {
		u.ProfilePicture = remote.ProfileImageURL
	}
	if remote.Username != "" {
		u.Username = remote.Username
	}
	if strings.TrimSpace(remote.Bio) != "" {
		u.Bio = remote.Bio
	}
	if remote.Points > 0 {
		u.Points = remote.Points
	}
	next.User = progression.Recompute(next.User)
	return next
}

// ProfilePatch is a partial local profile edit. Nil fields are untouched.
type ProfilePatch struct {
	ID             *string
	Name           *string
	Username       *string
	Bio            *string
	ProfilePicture *string
}

// ApplyPatch applies a local edit and returns the fields that also live remotely.
func (s State) ApplyPatch(p ProfilePatch) (State, []string) {
	next := s.clone()
	u := &next.User
	var remote []string
	if p.ID != nil {
		u.ID = *p.ID
	}
	if p.Name != nil {
		u.Name = *p.Name
		remote = append(remote, progression.FieldName)
	}
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.Bio != nil {
		u.Bio = *p.Bio
	}
	if p.ProfilePicture != nil {
		u.ProfilePicture = *p.ProfilePicture
		remote = append(remote, progression.FieldAvatar)
	}
	return next, remote
}

// normalize repairs a loaded document: missing catalog entries are seeded, derived
// user fields are recomputed.
func (s State) normalize() State {
	next := s.clone()
	if next.Discoveries == nil {
		next.Discoveries = discovery.Collection{}
	}
	if next.Friends == nil {
		next.Friends = friends.Seed()
	}
	next.Achievements = reconcileCatalog(next.Achievements)
	next.User = progression.Recompute(next.User)
	next.User.Badges = progression.DeriveBadges(next.Achievements)
	return next
}

// reevaluate unlocks whatever the current discoveries already earn and awards those
// rewards.
func (s State) reevaluate() State {
	next := s.clone()
	evaluated, unlockPoints := achievement.Evaluate(next.Discoveries, next.Achievements)
	next.Achievements = evaluated
	next.User = progression.ApplyPoints(next.User, unlockPoints)
	next.User.Badges = progression.DeriveBadges(next.Achievements)
	return next
}

func (s State) clone() State {
	out := State{
		Discoveries:  slices.Clone(s.Discoveries),
		Achievements: slices.Clone(s.Achievements),
		User:         s.User,
		Friends:      slices.Clone(s.Friends),
	}
	out.User.Badges = slices.Clone(s.User.Badges)
	out.User.Pending = slices.Clone(s.User.Pending)
	return out
}

func reconcileCatalog(state []achievement.Achievement) []achievement.Achievement {
	out := achievement.Catalog()
	for i := range out {
		for _, a := range state {
			if a.ID != out[i].ID {
				continue
			}
			out[i].Unlocked = a.Unlocked
			out[i].RewardClaimed = a.RewardClaimed
			if a.Progress != nil && out[i].Progress != nil {
				p := *a.Progress
				out[i].Progress = &p
			}
		}
	}
	return out
}

func newlyUnlocked(before, after []achievement.Achievement) []achievement.Achievement {
	was := make(map[string]bool, len(before))
	for _, a := range before {
		was[a.ID] = a.Unlocked
	}
	var out []achievement.Achievement
	for _, a := range after {
		if a.Unlocked && !was[a.ID] {
			out = append(out, a)
		}
	}
	return out
}

func markPending(u progression.User, fields ...string) progression.User {
	for _, f := range fields {
		if !slices.Contains(u.Pending, f) {
			u.Pending = append(u.Pending, f)
		}
	}
	return u
}

func clearPending(u progression.User, field string) progression.User {
	u.Pending = slices.DeleteFunc(slices.Clone(u.Pending), func(f string) bool { return f == field })
	if len(u.Pending) == 0 {
		u.Pending = nil
	}
	return u
}
