package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"modlist-downloader/internal/config"
	"modlist-downloader/internal/i18n"
	"modlist-downloader/internal/logger"
	"modlist-downloader/internal/verify"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Configure directories, verification and the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("========================================")
		fmt.Println(i18n.T("header_title"))
		fmt.Println("========================================")
		fmt.Println(i18n.T("intro_1"))
		fmt.Println(i18n.T("intro_2"))
		fmt.Println("========================================")
		fmt.Println("")

		c := config.AppConfig

		// 1. Directorios y work list
		downloadDir, _ := filepath.Abs(prompt(i18n.T("prompt_download_dir"), c.DownloadDir))
		worklistPath := prompt(i18n.T("prompt_worklist"), c.WorklistPath)

		// 2. Paralelismo y verificación
		concurrency := c.Concurrency
		if v, err := strconv.Atoi(prompt(i18n.T("prompt_concurrency"), strconv.Itoa(c.Concurrency))); err == nil && v > 0 {
			concurrency = v
		} else {
			logger.Warn(i18n.T("prompt_invalid"), concurrency)
		}

		mode := c.VerificationMode
		if m, err := verify.ParseMode(prompt(i18n.T("prompt_mode"), c.VerificationMode)); err == nil {
			mode = m.String()
		} else {
			logger.Warn(i18n.T("prompt_invalid"), mode)
		}

		gameDomain := prompt(i18n.T("prompt_game"), c.GameDomain)
		email := prompt(i18n.T("prompt_email"), c.EmailAlertTo)

		// 3. Guardar
		viper.Set("download_dir", downloadDir)
		viper.Set("worklist_path", worklistPath)
		viper.Set("concurrency", concurrency)
		viper.Set("verification_mode", mode)
		if gameDomain != c.GameDomain {
			viper.Set("game_domain", gameDomain)
			viper.Set("game_id", 0) // se vuelve a buscar en la próxima descarga
		}
		viper.Set("email_alert_to", email)

		path, err := saveConfig()
		if err != nil {
			return err
		}
		fmt.Printf(i18n.T("success_msg")+"\n", path)

		// 4. Login
		if c.SessionToken != "" {
			fmt.Printf(i18n.T("session_present")+"\n", maskToken(c.SessionToken))
		}
		if yes(prompt(i18n.T("login_ask"), "")) {
			return loginFlow(context.Background(), c.BrowserDataDir)
		}
		return nil
	},
}
