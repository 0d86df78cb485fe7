package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/tanq16/leccap/internal/navigator"
	"github.com/tanq16/leccap/internal/utils"
	"golang.org/x/term"
)

func notEmpty(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s cannot be empty", field)
		}
		return nil
	}
}

// askCredentials prompts for anything not supplied. Without a terminal
// both values are read as plain lines from lines.
func askCredentials(user string, lines navigator.Prompter) (utils.Credentials, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		var err error
		if user == "" {
			if user, err = lines.Prompt("Username: "); err != nil {
				return utils.Credentials{}, err
			}
		}
		password, err := lines.Prompt("Password: ")
		if err != nil {
			return utils.Credentials{}, err
		}
		return utils.Credentials{Username: user, Password: password}, nil
	}

	if user == "" {
		prompt := promptui.Prompt{Label: "Username", Validate: notEmpty("username")}
		var err error
		if user, err = prompt.Run(); err != nil {
			return utils.Credentials{}, promptError(err)
		}
	}
	prompt := promptui.Prompt{Label: "Password", Mask: '*', Validate: notEmpty("password")}
	password, err := prompt.Run()
	if err != nil {
		return utils.Credentials{}, promptError(err)
	}
	return utils.Credentials{Username: strings.TrimSpace(user), Password: password}, nil
}

func promptError(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
		return utils.ErrNoInput
	}
	return fmt.Errorf("error reading credentials: %w", err)
}
