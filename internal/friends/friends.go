// Package friends is the local directory of other explorers the user can follow.
package friends

import (
	"slices"
	"strings"

	"github.com/wildnest/wildnest/internal/progression"
)

// Friend is another explorer as shown in the people search.
type Friend struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	Username       string           `json:"username"`
	ProfilePicture string           `json:"profile_picture"`
	Points         int              `json:"points"`
	Level          int              `json:"level"`
	Rank           progression.Rank `json:"rank"`
	Bio            string           `json:"bio,omitempty"`
	Followers      int              `json:"followers"`
	Following      int              `json:"following"`
	IsFollowing    bool             `json:"is_following"`
}

// List is an ordered friends directory. Operations return new lists.
type List []Friend

// Seed returns the starter directory every fresh install gets.
func Seed() List {
	return List{
		{
			ID: "user-2", Name: "Sarah Johnson", Username: "sarah_wildlife",
			ProfilePicture: "https://images.unsplash.com/photo-1494790108755-2616b612b786?q=80&w=200&auto=format&fit=crop",
			Points:         850, Level: 9, Rank: progression.Advanced,
			Bio:       "Marine biologist exploring ocean life",
			Followers: 234, Following: 189, IsFollowing: true,
		},
		{
			ID: "user-3", Name: "Mike Chen", Username: "nature_mike",
			ProfilePicture: "https://images.unsplash.com/photo-1507003211169-0a1dd7228f2d?q=80&w=200&auto=format&fit=crop",
			Points:         1250, Level: 13, Rank: progression.Expert,
			Bio:       "Wildlife photographer and conservationist",
			Followers: 567, Following: 123,
		},
		{
			ID: "user-4", Name: "Emma Davis", Username: "bird_watcher_em",
			ProfilePicture: "https://images.unsplash.com/photo-1438761681033-6461ffad8d80?q=80&w=200&auto=format&fit=crop",
			Points:         650, Level: 7, Rank: progression.Intermediate,
			Bio:       "Avian enthusiast and bird migration researcher",
			Followers: 145, Following: 298, IsFollowing: true,
		},
		{
			ID: "user-5", Name: "Alex Rodriguez", Username: "jungle_alex",
			ProfilePicture: "https://images.unsplash.com/photo-1472099645785-5658abf4ff4e?q=80&w=200&auto=format&fit=crop",
			Points:         420, Level: 5, Rank: progression.Intermediate,
			Bio:       "Rainforest explorer and primate specialist",
			Followers: 89, Following: 156,
		},
		{
			ID: "user-6", Name: "Lisa Park", Username: "lisa_naturalist",
			ProfilePicture: "https://images.unsplash.com/photo-1544005313-94ddf0286df2?q=80&w=200&auto=format&fit=crop",
			Points:         980, Level: 10, Rank: progression.Advanced,
			Bio:       "Field naturalist and ecosystem researcher",
			Followers: 312, Following: 201, IsFollowing: true,
		},
	}
}

// Search matches query case-insensitively against name, username and bio. A blank
// query returns the whole list.
func (l List) Search(query string) List {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return slices.Clone(l)
	}
	out := List{}
	for _, f := range l {
		if strings.Contains(strings.ToLower(f.Name), q) ||
			strings.Contains(strings.ToLower(f.Username), q) ||
			strings.Contains(strings.ToLower(f.Bio), q) {
			out = append(out, f)
		}
	}
	return out
}

// Find returns the friend with id.
func (l List) Find(id string) (Friend, bool) {
	i := slices.IndexFunc(l, func(f Friend) bool { return f.ID == id })
	if i < 0 {
		return Friend{}, false
	}
	return l[i], true
}

// ToggleFollow flips IsFollowing for id. Unknown ids return the list unchanged and
// false.
func (l List) ToggleFollow(id string) (List, bool) {
	i := slices.IndexFunc(l, func(f Friend) bool { return f.ID == id })
	if i < 0 {
		return l, false
	}
	next := slices.Clone(l)
	next[i].IsFollowing = !next[i].IsFollowing
	return next, true
}

// FollowingCount counts the friends the user follows.
func (l List) FollowingCount() int {
	n := 0
	for _, f := range l {
		if f.IsFollowing {
			n++
		}
	}
	return n
}
