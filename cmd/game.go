package cmd

import (
	"context"
	"fmt"

	"modlist-downloader/internal/config"
	"modlist-downloader/internal/i18n"
	"modlist-downloader/internal/logger"
	"modlist-downloader/internal/nexus"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var gameSave bool

var gameCmd = &cobra.Command{
	Use:   "game <domain>",
	Short: "Look up the numeric id of a game (e.g. fallout4)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := nexus.NewClient(config.AppConfig.ResolveTimeout)
		if err != nil {
			return err
		}
		game, err := nexus.NewGameAPI(client).Lookup(context.Background(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s\t%d\t%s\n", game.Domain, game.ID, game.Name)

		if !gameSave {
			return nil
		}
		viper.Set("game_id", game.ID)
		viper.Set("game_domain", game.Domain)
		path, err := saveConfig()
		if err != nil {
			return err
		}
		logger.Success(i18n.T("game_saved"), game.Name, path)
		return nil
	},
}

func init() {
	gameCmd.Flags().BoolVar(&gameSave, "save", false, "Store game_id and game_domain in the config file")
}
