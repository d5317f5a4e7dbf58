// Package progression derives points, level, rank and badges for the local user.
package progression

import (
	"github.com/wildnest/wildnest/internal/achievement"
)

// Rank is the user's standing derived from cumulative points.
type Rank string

const (
	Beginner     Rank = "Beginner"
	Intermediate Rank = "Intermediate"
	Advanced     Rank = "Advanced"
	Expert       Rank = "Expert"
)

// Badge is the visual token for an unlocked achievement.
type Badge struct {
	Title string `json:"title"`
	Color string `json:"color"`
}

// Profile field names used in User.Pending.
const (
	FieldName   = "name"
	FieldAvatar = "avatar"
)

// User is the acting user's identity and gamification state.
type User struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Username       string  `json:"username"`
	ProfilePicture string  `json:"profile_picture"`
	Points         int     `json:"points"`
	Level          int     `json:"level"`
	Rank           Rank    `json:"rank"`
	Badges         []Badge `json:"badges"`
	Bio            string  `json:"bio,omitempty"`
	Followers      int     `json:"followers"`
	Following      int     `json:"following"`

	// Pending lists profile fields whose remote update has not succeeded yet.
	Pending []string `json:"pending,omitempty"`
}

var badgeColors = map[string]string{
	achievement.FirstDiscovery:     "#8D6E63",
	achievement.RareFinder:         "#5C6BC0",
	achievement.CollectionStarter:  "#26A69A",
	achievement.WildlifeEnthusiast: "#FFA000",
	achievement.LegendaryHunter:    "#D81B60",
}

// Level is floor(points/100)+1.
func Level(points int) int {
	if points < 0 {
		points = 0
	}
	return points/100 + 1
}

// RankFor maps cumulative points to a rank.
func RankFor(points int) Rank {
	switch {
	case points >= 1000:
		return Expert
	case points >= 500:
		return Advanced
	case points >= 200:
		return Intermediate
	default:
		return Beginner
	}
}

// ApplyPoints adds delta to the user's total and recomputes level and rank.
// Non-positive deltas leave points unchanged.
func ApplyPoints(u User, delta int) User {
	if delta > 0 {
		u.Points += delta
	}
	return Recompute(u)
}

// Recompute refreshes level and rank from the current point total.
func Recompute(u User) User {
	u.Level = Level(u.Points)
	u.Rank = RankFor(u.Points)
	return u
}

// DeriveBadges returns one badge per unlocked achievement, in catalog order. Claim
// status does not matter.
func DeriveBadges(state []achievement.Achievement) []Badge {
	badges := []Badge{}
	for _, a := range state {
		if !a.Unlocked {
			continue
		}
		color, ok := badgeColors[a.ID]
		if !ok {
			continue
		}
		badges = append(badges, Badge{Title: a.Title, Color: color})
	}
	return badges
}
