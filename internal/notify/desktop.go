package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"

	"flight_monitor/internal/model"
)

// Runner starts an external command without waiting for it.
type Runner func(name string, args ...string) error

// Desktop shows alerts through notify-send and optionally opens the booking page.
type Desktop struct {
	command string
	openURL bool
	run     Runner
	log     *slog.Logger
}

// NewDesktop creates a Desktop notifier that invokes command.
func NewDesktop(command string, openURL bool, log *slog.Logger) *Desktop {
	return &Desktop{command: command, openURL: openURL, run: startDetached, log: log}
}

// Notify fires the desktop notification. A missing notifier binary is logged
// and not reported as an error.
func (d *Desktop) Notify(_ context.Context, deal model.Deal) error {
	err := d.run(d.command, "--app-name=flight-monitor", "--urgency=critical", Title(deal), Body(deal)+"\n"+Link(deal))
	if errors.Is(err, exec.ErrNotFound) {
		d.log.Warn("desktop notifier not available", "command", d.command)
		return nil
	}
	if err != nil {
		return fmt.Errorf("run %s: %w", d.command, err)
	}

	if d.openURL && Link(deal) != "" {
		if err := d.run("xdg-open", Link(deal)); err != nil {
			d.log.Warn("open booking url", "url", Link(deal), "error", err)
		}
	}
	return nil
}

func startDetached(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
