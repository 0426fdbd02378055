package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
)

// promptPassword asks for the SSH password. Tests replace it.
var promptPassword = func(ctx context.Context, user string) (string, error) {
	if !isTerminal(stdin) {
		return "", errors.New("--ask-password requires an interactive terminal")
	}

	var password string
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(fmt.Sprintf("SSH password for %s", user)).
				Description("Used once per host to install the local public key").
				EchoMode(huh.EchoModePassword).
				Value(&password),
		).Title("SSH Access"),
	).RunWithContext(ctx)
	if err != nil {
		return "", fmt.Errorf("password prompt failed: %w", err)
	}
	return password, nil
}
