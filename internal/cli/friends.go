package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func friendsCommand(current func() *app) *cobra.Command {
	var search string
	cmd := &cobra.Command{
		Use:         "friends",
		Short:       "List explorers you can follow",
		Args:        cobra.NoArgs,
		Annotations: offlineOnly,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := current()
			list := a.engine.State().Friends.Search(search)
			if len(list) == 0 {
				fmt.Fprintln(a.out, "No explorers found.")
				return nil
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tUSERNAME\tLEVEL\tRANK\tFOLLOWING")
			for _, f := range list {
				following := "no"
				if f.IsFollowing {
					following = "yes"
				}
				fmt.Fprintf(tw, "%s\t%s\t@%s\t%d\t%s\t%s\n", f.ID, f.Name, f.Username, f.Level, f.Rank, following)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "Filter by name, username or bio")
	return cmd
}

func followCommand(current func() *app) *cobra.Command {
	return &cobra.Command{
		Use:         "follow <user-id>",
		Short:       "Follow or unfollow an explorer",
		Args:        cobra.ExactArgs(1),
		Annotations: offlineOnly,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			f, found, err := a.engine.ToggleFollow(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("explorer %s not found", args[0])
			}
			if f.IsFollowing {
				fmt.Fprintf(a.out, "Following %s (@%s)\n", f.Name, f.Username)
			} else {
				fmt.Fprintf(a.out, "Unfollowed %s (@%s)\n", f.Name, f.Username)
			}
			return nil
		},
	}
}
