package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "supernova",
	Short: "A time-loop expedition played from your terminal",
	Long: `Supernova drops you into a solar system twenty-two actions from
destruction. Explore, read, and talk your way to the knowledge that
survives each reset; everything else burns.`,
	RunE: runRootDefault,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default .supernova.toml)")
	rootCmd.PersistentFlags().String("content", "", "world content directory (default \"content\")")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable ANSI colors")

	_ = viper.BindPFlag("content_dir", rootCmd.PersistentFlags().Lookup("content"))
	_ = viper.BindPFlag("no_color", rootCmd.PersistentFlags().Lookup("no-color"))
}

func initConfig() {
	if cfgFile, _ := rootCmd.Flags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".supernova")
		viper.SetConfigType("toml")
		viper.AddConfigPath(".")
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
	}

	viper.SetEnvPrefix("SUPERNOVA")
	viper.AutomaticEnv()

	// It's fine if no config file is found; we use defaults.
	_ = viper.ReadInConfig()
}

// runRootDefault starts a game when a world is present in the cwd.
// Without one, it falls back to showing help.
func runRootDefault(cmd *cobra.Command, args []string) error {
	dir := viper.GetString("content_dir")
	if dir == "" {
		dir = "content"
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return cmd.Help()
	}
	// Delegate to the play subcommand.
	return runPlay(playCmd, nil)
}
