package notifier

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"modlist-downloader/internal/i18n"
	"modlist-downloader/internal/logger"
)

var ErrNoBinary = errors.New("msmtp not found in PATH")

// SendAlert sends an email alert using the system's msmtp binary.
// It assumes msmtp is configured correctly on the host. An empty recipient
// disables alerts.
func SendAlert(recipient, subject, body string) error {
	if recipient == "" {
		logger.Debug(i18n.T("notifier_skipped"))
		return nil
	}

	if _, err := exec.LookPath("msmtp"); err != nil {
		return ErrNoBinary
	}

	msg := fmt.Sprintf("To: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s", recipient, subject, body)

	cmd := exec.Command("msmtp", recipient)
	cmd.Stdin = strings.NewReader(msg)

	logger.Info(i18n.T("notifier_sending"), recipient)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("msmtp failed: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
