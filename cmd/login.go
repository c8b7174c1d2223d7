package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"modlist-downloader/internal/browser"
	"modlist-downloader/internal/config"
	"modlist-downloader/internal/i18n"
	"modlist-downloader/internal/logger"
	"modlist-downloader/internal/nexus"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var loginManual bool

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in through a browser window and store the session token",
	RunE: func(cmd *cobra.Command, args []string) error {
		if loginManual {
			return manualLogin()
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		return loginFlow(ctx, config.AppConfig.BrowserDataDir)
	},
}

func init() {
	loginCmd.Flags().BoolVar(&loginManual, "manual", false, "Open the default browser and paste the session cookie by hand")
}

// loginFlow opens a visible browser on the site, waits for the session cookie
// and writes it to the config file.
func loginFlow(ctx context.Context, dataDir string) error {
	fmt.Println(i18n.T("login_start"))

	// Headless = false para que el usuario pueda ver y escribir
	bm, err := browser.New(dataDir, false)
	if err != nil {
		return err
	}
	defer bm.Close()

	token, err := bm.CaptureSession(ctx, nexus.DefaultSiteURL, nexus.SessionCookie)
	if err != nil {
		return fmt.Errorf(i18n.T("login_fail"), err)
	}

	return storeSession(token)
}

// manualLogin is the fallback when Chrome cannot be driven: the user copies
// the cookie value from their own browser's developer tools.
func manualLogin() error {
	if err := browser.OpenDefault(nexus.DefaultSiteURL); err != nil {
		logger.Warn(i18n.T("login_open_fail"), nexus.DefaultSiteURL, err)
	}
	fmt.Printf(i18n.T("login_manual")+"\n", nexus.SessionCookie)
	token := strings.TrimSpace(prompt(nexus.SessionCookie, ""))
	if token == "" {
		return errors.New(i18n.T("login_empty"))
	}
	return storeSession(token)
}

func storeSession(token string) error {
	viper.Set("session_token", token)
	path, err := saveConfig()
	if err != nil {
		return err
	}
	logger.Success(i18n.T("login_saved"), maskToken(token), path)
	return nil
}
