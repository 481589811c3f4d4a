package notification

import (
	"fmt"
	"os/exec"

	"github.com/vixalabs/vixa/internal/logger"
)

type linuxNotifier struct{}

func newLinuxNotifier() platformNotifier {
	return &linuxNotifier{}
}

func (n *linuxNotifier) send(title, message string) error {
	cmd := exec.Command("notify-send", "--app-name=vixa", title, message)
	if err := cmd.Run(); err != nil {
		logger.Debugf("notify-send failed: %v", err)
		return fmt.Errorf("failed to send notification: %w", err)
	}
	return nil
}
