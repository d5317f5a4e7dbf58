package cli

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/wildnest/wildnest/internal/appstate"
	"github.com/wildnest/wildnest/internal/discovery"
	"github.com/wildnest/wildnest/internal/rarity"
)

func identifyCommand(current func() *app) *cobra.Command {
	var offline bool
	cmd := &cobra.Command{
		Use:   "identify <image>",
		Short: "Identify the animal in a photo and add it to your collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			ctx := cmd.Context()
			path := args[0]

			if offline || !a.signedIn() {
				if !offline {
					a.notice("not signed in, using the offline field guide")
				}
				change, err := a.engine.IdentifyOffline(ctx, path)
				if err != nil {
					return err
				}
				printChange(a, change)
				return nil
			}

			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}
			change, added, err := a.engine.Identify(ctx, base64.StdEncoding.EncodeToString(data))
			if err != nil {
				fmt.Fprintf(a.errOut, "Identification error: %s\n", message(err))
				change, err = a.engine.IdentifyOffline(ctx, path)
				if err != nil {
					return err
				}
				printChange(a, change)
				return nil
			}
			if !added {
				fmt.Fprintf(a.out, "Already in your collection: %s (%s)\n", change.Discovery.Name, change.Discovery.ID)
				return nil
			}
			printChange(a, change)
			return nil
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "Use the offline field guide instead of the API")
	return cmd
}

func printChange(a *app, c appstate.Change) {
	d := c.Discovery
	fmt.Fprintf(a.out, "Discovered %s (%s), %s\n", d.Name, d.ScientificName, d.Rarity.Label())
	fmt.Fprintf(a.out, "  id: %s\n", d.ID)
	fmt.Fprintf(a.out, "  +%d points\n", c.ScorePoints)
	for _, ach := range c.NewlyUnlocked {
		fmt.Fprintf(a.out, "  Achievement unlocked: %s (+%d points)\n", ach.Title, ach.RewardPoints)
	}
	user := a.engine.State().User
	fmt.Fprintf(a.out, "Total: %d points, level %d, %s\n", user.Points, user.Level, user.Rank)
}

func discoveriesCommand(current func() *app) *cobra.Command {
	var (
		search    string
		tier      string
		category  string
		favorites bool
	)
	cmd := &cobra.Command{
		Use:         "discoveries",
		Short:       "List your collection",
		Args:        cobra.NoArgs,
		Annotations: offlineOnly,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := current()
			list := a.engine.State().Discoveries
			if search != "" {
				list = list.Search(search)
			}
			if tier != "" {
				t := rarity.Tier(strings.ToLower(tier))
				if !t.Valid() {
					return fmt.Errorf("unknown rarity %q", tier)
				}
				list = list.FilterRarity(t)
			}
			if category != "" {
				list = list.FilterCategory(category)
			}
			if favorites {
				list = list.Favorites()
			}
			printDiscoveries(a, list)
			return nil
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "Filter by name")
	cmd.Flags().StringVar(&tier, "rarity", "", "Filter by rarity: common, uncommon, rare, legendary")
	cmd.Flags().StringVar(&category, "category", "", "Filter by category, e.g. Mammal, Bird, Insect")
	cmd.Flags().BoolVar(&favorites, "favorites", false, "Only show favorites")
	cmd.AddCommand(&cobra.Command{
		Use:         "show <id>",
		Short:       "Show one discovery",
		Args:        cobra.ExactArgs(1),
		Annotations: offlineOnly,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			d, ok := a.engine.State().Discoveries.Find(args[0])
			if !ok {
				return fmt.Errorf("discovery %s not found", args[0])
			}
			printDiscovery(a, d)
			return nil
		},
	})
	return cmd
}

func printDiscoveries(a *app, list discovery.Collection) {
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No discoveries yet.")
		return
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tRARITY\tPOINTS\tFAVORITE\tDISCOVERED")
	for _, d := range list {
		fav := ""
		if d.IsFavorite {
			fav = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n", d.ID, d.Name, d.Rarity.Label(), d.Points, fav, d.DiscoveredAt.Local().Format("2006-01-02 15:04"))
	}
	_ = tw.Flush()
	fmt.Fprintf(a.out, "%d discoveries, %d unique species\n", len(list), list.UniqueSpecies())
}

func printDiscovery(a *app, d discovery.Discovery) {
	fmt.Fprintf(a.out, "%s (%s)\n", d.Name, d.ScientificName)
	fmt.Fprintf(a.out, "  Rarity:    %s (%d points)\n", d.Rarity.Label(), d.Points)
	fmt.Fprintf(a.out, "  Category:  %s\n", d.Category)
	fmt.Fprintf(a.out, "  Habitat:   %s\n", d.Habitat)
	fmt.Fprintf(a.out, "  Image:     %s\n", d.ImageURI)
	fmt.Fprintf(a.out, "  Favorite:  %t\n", d.IsFavorite)
	if d.Description != "" {
		fmt.Fprintf(a.out, "  %s\n", d.Description)
	}
	for _, fact := range d.FunFacts {
		fmt.Fprintf(a.out, "  - %s\n", fact)
	}
}

func favoriteCommand(current func() *app) *cobra.Command {
	return &cobra.Command{
		Use:         "favorite <id>",
		Short:       "Toggle a discovery's favorite flag",
		Args:        cobra.ExactArgs(1),
		Annotations: offlineOnly,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			found, err := a.engine.ToggleFavorite(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("discovery %s not found", args[0])
			}
			d, _ := a.engine.State().Discoveries.Find(args[0])
			if d.IsFavorite {
				fmt.Fprintf(a.out, "Added %s to favorites\n", d.Name)
			} else {
				fmt.Fprintf(a.out, "Removed %s from favorites\n", d.Name)
			}
			return nil
		},
	}
}

func achievementsCommand(current func() *app) *cobra.Command {
	return &cobra.Command{
		Use:         "achievements",
		Short:       "List achievements and their progress",
		Args:        cobra.NoArgs,
		Annotations: offlineOnly,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := current()
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTITLE\tSTATUS\tPROGRESS\tREWARD")
			for _, ach := range a.engine.State().Achievements {
				status := "locked"
				switch {
				case ach.RewardClaimed:
					status = "claimed"
				case ach.Unlocked:
					status = "unlocked"
				}
				progress := "-"
				if ach.Progress != nil {
					progress = fmt.Sprintf("%d%%", *ach.Progress)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", ach.ID, ach.Title, status, progress, ach.RewardPoints)
			}
			return tw.Flush()
		},
	}
}

func claimCommand(current func() *app) *cobra.Command {
	return &cobra.Command{
		Use:         "claim <achievement-id>",
		Short:       "Claim an unlocked achievement's reward",
		Args:        cobra.ExactArgs(1),
		Annotations: offlineOnly,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			awarded, claimed, err := a.engine.ClaimReward(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !claimed {
				fmt.Fprintf(a.out, "Nothing to claim for %s\n", args[0])
				return nil
			}
			fmt.Fprintf(a.out, "Claimed %d points, total %d\n", awarded, a.engine.State().User.Points)
			return nil
		},
	}
}

func resetCommand(current func() *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:         "reset",
		Short:       "Erase local progress and start over",
		Args:        cobra.NoArgs,
		Annotations: offlineOnly,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := current()
			if !yes {
				return fmt.Errorf("reset erases every discovery and achievement; rerun with --yes to confirm")
			}
			if err := a.engine.Reset(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Local state reset.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the reset")
	return cmd
}
