package client

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/wildnest/wildnest/internal/appstate"
	"github.com/wildnest/wildnest/internal/profile"
)

// FetchProfile loads the signed-in user's profile. The API scopes writes to the token
// owner, so a request for anyone else is refused.
func (c *Client) FetchProfile(ctx context.Context, userID string) (appstate.RemoteProfile, error) {
	p, err := c.Me(ctx)
	if err != nil {
		return appstate.RemoteProfile{}, err
	}
	if userID != "" && p.ID != userID {
		return appstate.RemoteProfile{}, fmt.Errorf("token belongs to %s, not %s", p.ID, userID)
	}
	return appstate.RemoteProfile{
		ID:              p.ID,
		Username:        p.Username,
		DisplayName:     p.DisplayName,
		Email:           p.Email,
		ProfileImageURL: p.ProfileImageURL,
		Points:          p.Points,
		Bio:             p.Bio,
	}, nil
}

func (c *Client) UpdateDisplayName(ctx context.Context, _ string, name string) error {
	_, err := c.UpdateProfile(ctx, profile.UpdateInput{DisplayName: &name})
	return err
}

// UpdateAvatar points the profile at a remote URL, or uploads the file when avatar is
// a local path.
func (c *Client) UpdateAvatar(ctx context.Context, _ string, avatar string) error {
	if isRemoteURL(avatar) {
		_, err := c.UpdateProfile(ctx, profile.UpdateInput{ProfileImageURL: &avatar})
		return err
	}
	data, err := os.ReadFile(strings.TrimPrefix(avatar, "file://"))
	if err != nil {
		return fmt.Errorf("read avatar: %w", err)
	}
	_, err = c.UploadAvatar(ctx, data)
	return err
}

func isRemoteURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func encodeBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

var (
	_ appstate.ProfileRemote = (*Client)(nil)
	_ appstate.Identifier    = (*Client)(nil)
)
