package appstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/wildnest/wildnest/internal/achievement"
	"github.com/wildnest/wildnest/internal/discovery"
	"github.com/wildnest/wildnest/internal/localstore"
	"github.com/wildnest/wildnest/internal/progression"
	"github.com/wildnest/wildnest/internal/rarity"
)

// Older installs kept three independent documents under these keys.
var legacyKeys = []string{"discoveries", "achievements", "user"}

type legacyDiscovery struct {
	ID             string   `json:"id"`
	ImageURI       string   `json:"imageUri"`
	Name           string   `json:"name"`
	ScientificName string   `json:"scientificName"`
	Description    string   `json:"description"`
	Category       string   `json:"category"`
	Habitat        string   `json:"habitat"`
	Rarity         string   `json:"rarity"`
	FunFacts       []string `json:"funFacts"`
	Points         int      `json:"points"`
	DiscoveredAt   string   `json:"discoveredAt"`
	IsFavorite     bool     `json:"isFavorite"`
}

type legacyAchievement struct {
	ID            string `json:"id"`
	Unlocked      bool   `json:"unlocked"`
	RewardClaimed bool   `json:"rewardClaimed"`
	Progress      *int   `json:"progress"`
}

type legacyUser struct {
	ID             string              `json:"id"`
	Name           string              `json:"name"`
	Username       string              `json:"username"`
	ProfilePicture string              `json:"profilePicture"`
	Points         int                 `json:"points"`
	Badges         []progression.Badge `json:"badges"`
	Followers      int                 `json:"followers"`
	Following      int                 `json:"following"`
	Bio            string              `json:"bio"`
}

// loadLegacy assembles a State from the three-key layout. migrated is false when none
// of the keys exist.
func (e *Engine) loadLegacy(ctx context.Context) (state State, migrated bool, err error) {
	state = Initial()

	var discoveries []legacyDiscovery
	found, err := e.readLegacy(ctx, "discoveries", &discoveries)
	if err != nil {
		return State{}, false, err
	}
	migrated = migrated || found
	for _, d := range discoveries {
		tier := rarity.Parse(rarity.String(d.Rarity))
		at, perr := time.Parse(time.RFC3339, d.DiscoveredAt)
		if perr != nil {
			at = e.now().UTC()
		}
		state.Discoveries = append(state.Discoveries, discovery.Discovery{
			ID:             d.ID,
			Name:           d.Name,
			ScientificName: d.ScientificName,
			Description:    d.Description,
			Category:       d.Category,
			Habitat:        d.Habitat,
			Rarity:         tier,
			FunFacts:       d.FunFacts,
			Points:         d.Points,
			ImageURI:       d.ImageURI,
			DiscoveredAt:   at,
			IsFavorite:     d.IsFavorite,
		})
	}

	var achievements []legacyAchievement
	found, err = e.readLegacy(ctx, "achievements", &achievements)
	if err != nil {
		return State{}, false, err
	}
	migrated = migrated || found
	if found {
		converted := make([]achievement.Achievement, 0, len(achievements))
		for _, a := range achievements {
			converted = append(converted, achievement.Achievement{
				ID:            a.ID,
				Unlocked:      a.Unlocked,
				RewardClaimed: a.RewardClaimed,
				Progress:      a.Progress,
			})
		}
		state.Achievements = converted
	}

	var user legacyUser
	found, err = e.readLegacy(ctx, "user", &user)
	if err != nil {
		return State{}, false, err
	}
	migrated = migrated || found
	if found {
		state.User = progression.User{
			ID:             user.ID,
			Name:           user.Name,
			Username:       user.Username,
			ProfilePicture: user.ProfilePicture,
			Points:         user.Points,
			Bio:            user.Bio,
			Followers:      user.Followers,
			Following:      user.Following,
		}
	}

	if migrated {
		e.logger.Info("migrated legacy local state", "discoveries", len(state.Discoveries))
	}
	return state, migrated, nil
}

func (e *Engine) readLegacy(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := e.store.Get(ctx, key)
	if errors.Is(err, localstore.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load legacy %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		e.logger.Warn("discarding unreadable legacy document", "key", key, "error", err)
		return false, nil
	}
	return true, nil
}

func (e *Engine) dropLegacy(ctx context.Context) {
	for _, key := range legacyKeys {
		if err := e.store.Delete(ctx, key); err != nil {
			e.logger.Warn("failed to remove legacy document", "key", key, "error", err)
		}
	}
}
