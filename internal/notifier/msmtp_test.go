package notifier

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSendAlertDisabled(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	if err := SendAlert("", "s", "b"); err != nil {
		t.Fatalf("empty recipient should be a no-op, got %v", err)
	}
}

func TestSendAlertNoBinary(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	if err := SendAlert("ops@example.com", "s", "b"); !errors.Is(err, ErrNoBinary) {
		t.Fatalf("err = %v", err)
	}
}

func TestSendAlertPipesMessage(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "mail.txt")
	script := "#!/bin/sh\necho \"$1\" > " + out + ".to\ncat > " + out + "\n"
	if err := os.WriteFile(filepath.Join(dir, "msmtp"), []byte(script), 0755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))

	if err := SendAlert("ops@example.com", "3 downloads failed", "details"); err != nil {
		t.Fatalf("SendAlert: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	msg := string(data)
	if !strings.Contains(msg, "Subject: 3 downloads failed") || !strings.HasSuffix(msg, "details") {
		t.Errorf("message = %q", msg)
	}
	to, _ := os.ReadFile(out + ".to")
	if strings.TrimSpace(string(to)) != "ops@example.com" {
		t.Errorf("recipient arg = %q", to)
	}
}
