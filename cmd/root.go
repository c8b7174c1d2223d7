package cmd

import (
	"fmt"
	"os"

	"modlist-downloader/internal/config"
	"modlist-downloader/internal/i18n"
	"modlist-downloader/internal/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:           "modlist-downloader",
	Short:         "Resolve, download and verify every archive of a modlist",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		i18n.Init() // idioma primero, la config ya imprime mensajes
		config.InitConfig()
		logger.Setup()
	},
}

func init() {
	rootCmd.AddCommand(configureCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(gameCmd)
	rootCmd.AddCommand(renameCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(historyCmd)

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().Bool("non-interactive", false, "Disable interactive UI (progress bars)")
	rootCmd.PersistentFlags().StringVar(&config.ConfigFile, "config", "", "Config file (default: search /etc, ~/.config and .)")
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("non_interactive", rootCmd.PersistentFlags().Lookup("non-interactive"))
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}
