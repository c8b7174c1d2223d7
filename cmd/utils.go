package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"modlist-downloader/internal/config"
	"modlist-downloader/internal/i18n"

	"github.com/spf13/viper"
)

// prompt pide un dato al usuario. Si defaultVal no está vacío, lo muestra y lo usa si el usuario da Enter.
func prompt(label string, defaultVal string) string {
	msg := label
	if defaultVal != "" {
		msg = fmt.Sprintf("%s [%s]", label, defaultVal)
	}
	fmt.Printf("%s: ", msg)

	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultVal
	}
	return input
}

func yes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes", "s", "si", "sí":
		return true
	}
	return false
}

// saveConfig writes the current viper settings, creating the per-user config
// file when none was loaded.
func saveConfig() (string, error) {
	if viper.ConfigFileUsed() == "" {
		dir := config.Dir()
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf(i18n.T("error_mkdir"), err)
		}
		viper.SetConfigFile(filepath.Join(dir, "config.yaml"))
	}

	if err := viper.WriteConfig(); err != nil {
		if err := viper.WriteConfigAs(viper.ConfigFileUsed()); err != nil {
			return "", fmt.Errorf(i18n.T("error_save"), err)
		}
	}
	return viper.ConfigFileUsed(), nil
}

// maskToken keeps only the ends of a secret for display.
func maskToken(tok string) string {
	if len(tok) <= 8 {
		return strings.Repeat("*", len(tok))
	}
	return tok[:4] + strings.Repeat("*", len(tok)-8) + tok[len(tok)-4:]
}
