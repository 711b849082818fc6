package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/delivery-client/cmd/cda/commands"
	"github.com/fivetwenty-io/delivery-client/internal/constants"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "cda",
	Short: "Content delivery API CLI",
	Long: `A command-line interface for reading published content from a
content delivery API.

Entries, assets, content types and the space itself can be listed and
inspected. Links between entries are resolved within one session, so a
resource referenced from several places is fetched at most once.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "config file (default is $HOME/.cda/config.yml)")
	flags.StringP("space", "s", "", "space ID")
	flags.StringP("environment", "e", "", "environment ID (default master)")
	flags.StringP("token", "t", "", "delivery or preview access token")
	flags.StringP("api", "a", "", "API endpoint URL")
	flags.Bool("preview", false, "use the preview API")
	flags.StringP("locale", "l", "", "locale to request, * for all locales")
	flags.String("default-locale", "", "locale used when none is given and as the fallback for missing values")
	flags.Duration("timeout", 0, "timeout for a single HTTP attempt")
	flags.StringP("output", "o", constants.FormatAuto, "output format (auto, table, json, yaml)")
	flags.String("jq", "", "jq expression applied to the JSON output")
	flags.BoolP("verbose", "v", false, "verbose output")

	// Bind flags to viper
	for _, name := range []string{
		"config", "space", "environment", "token", "api", "preview", "locale",
		"default-locale", "timeout", "output", "jq", "verbose",
	} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}

	commands.SetUserAgent(version)

	// Add commands
	rootCmd.AddCommand(commands.NewVersionCommand(version, commit, date))
	rootCmd.AddCommand(commands.NewEntryCommand())
	rootCmd.AddCommand(commands.NewEntriesCommand())
	rootCmd.AddCommand(commands.NewAssetCommand())
	rootCmd.AddCommand(commands.NewAssetsCommand())
	rootCmd.AddCommand(commands.NewContentTypeCommand())
	rootCmd.AddCommand(commands.NewContentTypesCommand())
	rootCmd.AddCommand(commands.NewSpaceCommand())
}

func initConfig() {
	cfgFile := viper.GetString("config")

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		// Search config in ~/.cda/config.yml
		viper.AddConfigPath(filepath.Join(home, ".cda"))
		viper.SetConfigType("yml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match, CDA_DEFAULT_LOCALE for --default-locale
	viper.SetEnvPrefix("CDA")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
