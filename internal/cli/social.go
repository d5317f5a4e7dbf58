package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wildnest/wildnest/internal/client"
	"github.com/wildnest/wildnest/internal/likes"
	"github.com/wildnest/wildnest/internal/posts"
)

func feedCommand(current func() *app) *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Show the latest community posts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := current()
			api, err := a.requireAPI()
			if err != nil {
				return err
			}
			var views []posts.View
			if userID != "" {
				views, err = api.UserPosts(cmd.Context(), userID)
			} else {
				views, err = api.LatestPosts(cmd.Context())
			}
			if err != nil {
				return fmt.Errorf("could not load posts: %s", message(err))
			}
			if len(views) == 0 {
				fmt.Fprintln(a.out, "No posts yet.")
				return nil
			}
			for _, v := range views {
				printPost(a, v)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "Only show posts by this user id")
	return cmd
}

func printPost(a *app, v posts.View) {
	animal := "Unidentified"
	tier := ""
	if v.Animal != nil {
		animal = v.Animal.Name
		tier = " [" + v.Animal.Rarity.Label() + "]"
	}
	fmt.Fprintf(a.out, "%s by %s%s\n", animal, v.User.Name, tier)
	fmt.Fprintf(a.out, "  id: %s  posted %s\n", v.ID, v.CreatedAt.Local().Format("2006-01-02 15:04"))
	fmt.Fprintf(a.out, "  %s\n", v.ImageURL)
	if v.Caption != nil && *v.Caption != "" {
		fmt.Fprintf(a.out, "  %q\n", *v.Caption)
	}
}

func postCommand(current func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "post <id>",
		Short: "Show a post and its likes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			api, err := a.requireAPI()
			if err != nil {
				return err
			}
			v, err := api.Post(cmd.Context(), args[0])
			if err != nil {
				if client.IsNotFound(err) {
					return fmt.Errorf("post %s not found", args[0])
				}
				return fmt.Errorf("could not load post: %s", message(err))
			}
			printPost(a, v)
			if v.Animal != nil {
				for _, fact := range v.Animal.FunFacts {
					fmt.Fprintf(a.out, "  - %s\n", fact)
				}
			}
			st, err := api.Likes(cmd.Context(), args[0])
			if err != nil {
				a.notice("could not load likes: %s", message(err))
				return nil
			}
			liked := ""
			if st.Liked {
				liked = ", including you"
			}
			fmt.Fprintf(a.out, "  %d likes%s\n", st.Count, liked)
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one of your posts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			api, err := a.requireAPI()
			if err != nil {
				return err
			}
			if err := api.DeletePost(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("could not delete post: %s", message(err))
			}
			fmt.Fprintf(a.out, "Deleted post %s\n", args[0])
			return nil
		},
	})
	return cmd
}

func likeCommand(current func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "like <post-id>",
		Short: "Like or unlike a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			if err := likes.ValidatePostID(args[0]); err != nil {
				return err
			}
			api, err := a.requireAPI()
			if err != nil {
				return err
			}
			st, err := api.ToggleLike(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("could not like post: %s", message(err))
			}
			verb := "Unliked"
			if st.Liked {
				verb = "Liked"
			}
			fmt.Fprintf(a.out, "%s post %s (%d likes)\n", verb, args[0], st.Count)
			return nil
		},
	}
}
