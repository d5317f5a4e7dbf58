package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wildnest/wildnest/internal/appstate"
)

func profileCommand(current func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:         "profile",
		Short:       "Show your profile",
		Args:        cobra.NoArgs,
		Annotations: offlineOnly,
		RunE: func(cmd *cobra.Command, _ []string) error {
			printProfile(current())
			return nil
		},
	}
	cmd.AddCommand(profileSyncCommand(current), profileUpdateCommand(current))
	return cmd
}

func printProfile(a *app) {
	st := a.engine.State()
	u := st.User
	fmt.Fprintf(a.out, "%s (@%s)\n", u.Name, u.Username)
	fmt.Fprintf(a.out, "  ID:        %s\n", u.ID)
	fmt.Fprintf(a.out, "  Level:     %d (%s)\n", u.Level, u.Rank)
	fmt.Fprintf(a.out, "  Points:    %d\n", u.Points)
	fmt.Fprintf(a.out, "  Collected: %d (%d rare or better)\n", len(st.Discoveries), st.Discoveries.RareCount())
	fmt.Fprintf(a.out, "  Followers: %d  Following: %d\n", u.Followers, u.Following)
	if u.Bio != "" {
		fmt.Fprintf(a.out, "  Bio:       %s\n", u.Bio)
	}
	if len(u.Badges) > 0 {
		titles := make([]string, 0, len(u.Badges))
		for _, b := range u.Badges {
			titles = append(titles, b.Title)
		}
		fmt.Fprintf(a.out, "  Badges:    %s\n", strings.Join(titles, ", "))
	}
	if len(u.Pending) > 0 {
		fmt.Fprintf(a.out, "  Not yet synced: %s\n", strings.Join(u.Pending, ", "))
	}
}

func profileSyncCommand(current func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Push pending edits and pull your remote profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := current()
			if !a.signedIn() {
				return errNotSignedIn
			}
			if err := a.engine.SyncFromRemote(cmd.Context(), a.engine.State().User.ID); err != nil {
				return fmt.Errorf("sync failed: %s", message(err))
			}
			printProfile(a)
			return nil
		},
	}
}

func profileUpdateCommand(current func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Edit your name, username, bio or avatar",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := current()
			var patch appstate.ProfilePatch
			flags := cmd.Flags()
			for flag, target := range map[string]**string{
				"name":     &patch.Name,
				"username": &patch.Username,
				"bio":      &patch.Bio,
				"avatar":   &patch.ProfilePicture,
			} {
				if flags.Changed(flag) {
					value, _ := flags.GetString(flag)
					*target = &value
				}
			}
			if patch == (appstate.ProfilePatch{}) {
				return fmt.Errorf("nothing to update: pass --name, --username, --bio or --avatar")
			}
			if err := a.engine.UpdateUserProfile(cmd.Context(), patch); err != nil {
				return err
			}
			printProfile(a)
			return nil
		},
	}
	cmd.Flags().String("name", "", "Display name")
	cmd.Flags().String("username", "", "Username")
	cmd.Flags().String("bio", "", "Short bio")
	cmd.Flags().String("avatar", "", "Avatar image URL or local file path")
	return cmd
}
