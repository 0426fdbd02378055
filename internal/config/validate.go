package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/imamik/cephprobe/internal/inventory"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration for errors. Struct tags are checked
// first, then each section in turn; the first failing section is returned.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return describe(err)
	}
	if err := c.validateSSH(); err != nil {
		return fmt.Errorf("ssh: %w", err)
	}
	if err := c.validateHosts(); err != nil {
		return fmt.Errorf("hosts: %w", err)
	}
	return nil
}

func (c *Config) validateSSH() error {
	if strings.ContainsAny(c.SSH.User, " \t\n") {
		return fmt.Errorf("user %q must not contain whitespace", c.SSH.User)
	}
	return nil
}

func (c *Config) validateHosts() error {
	seen := make(map[string]bool)
	for i, h := range c.Hosts {
		names, err := ExpandHosts(h.Name)
		if err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
		for _, r := range h.Roles {
			if _, err := inventory.ParseRole(r); err != nil {
				return fmt.Errorf("%s: %w", h.Name, err)
			}
		}
		for _, n := range names {
			if seen[n] {
				return fmt.Errorf("duplicate host %q", n)
			}
			seen[n] = true
		}
	}
	return nil
}

// describe turns validator errors into config-path messages.
func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "Config.")
		switch fe.Tag() {
		case "required", "required_if":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s], got %q", field, fe.Param(), fe.Value()))
		case "min", "max", "gt", "gte":
			msgs = append(msgs, fmt.Sprintf("%s must be %s %s", field, fe.Tag(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
