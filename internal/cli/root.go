// Package cli implements the wildnest command line client.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewRootCommand builds the wildnest command tree.
func NewRootCommand(deps Deps) *cobra.Command {
	if deps.Out == nil {
		deps.Out = os.Stdout
	}
	if deps.Err == nil {
		deps.Err = os.Stderr
	}

	v := viper.New()
	var (
		configFile string
		a          *app
	)

	rootCmd := &cobra.Command{
		Use:           "wildnest",
		Short:         "Collect and share the wildlife you photograph",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(deps.Out)
	rootCmd.SetErr(deps.Err)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "Config file (default $HOME/.wildnest/config.yaml)")
	flags.String("api-url", "", "WildNest API base URL")
	flags.String("token", "", "Bearer token for the WildNest API")
	flags.String("db", "", "Path to the local state database")
	flags.Duration("timeout", 0, "Timeout for API requests")
	flags.BoolP("debug", "d", false, "Enable debug output")
	for key, flag := range map[string]string{
		"api_url": "api-url",
		"token":   "token",
		"db_path": "db",
		"timeout": "timeout",
		"debug":   "debug",
	} {
		_ = v.BindPFlag(key, flags.Lookup(flag))
	}

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		settings, err := loadSettings(v, configFile)
		if err != nil {
			return err
		}
		a, err = openApp(cmd.Context(), settings, deps)
		if err != nil {
			return err
		}
		if cmd.Annotations[annotationSkipSignIn] == "" {
			a.signIn(cmd.Context())
		}
		return nil
	}
	rootCmd.PersistentPostRunE = func(*cobra.Command, []string) error {
		if a == nil {
			return nil
		}
		return a.Close()
	}

	current := func() *app { return a }
	rootCmd.AddCommand(
		identifyCommand(current),
		discoveriesCommand(current),
		favoriteCommand(current),
		achievementsCommand(current),
		claimCommand(current),
		profileCommand(current),
		feedCommand(current),
		postCommand(current),
		likeCommand(current),
		friendsCommand(current),
		followCommand(current),
		resetCommand(current),
	)
	return rootCmd
}

// annotationSkipSignIn marks commands that never talk to the API.
const annotationSkipSignIn = "wildnest/skip-sign-in"

var offlineOnly = map[string]string{annotationSkipSignIn: "true"}

// Execute runs the CLI with process defaults and returns the exit code.
func Execute(ctx context.Context) int {
	cmd := NewRootCommand(Deps{})
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}
