package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

// promptRunner is the narrow surface ConfigureCommand depends on, so tests
// can substitute a scripted runner instead of a real terminal prompt.
type promptRunner interface {
	Run() (string, error)
}

var _ promptRunner = (*promptui.Prompt)(nil)

// ConfigureCommand is a first-run convenience: it walks the operator through
// the provider base URL, the provider admin credentials and the database URL
// a fresh deployment needs, and writes them to a .env file the root command
// will pick up on its next run. It writes no webhook settings. It is not
// part of the engine's runtime contract.
//
// The four prompts are exposed as fields, defaulted to real promptui
// prompts in Command, so tests can substitute scripted promptRunners.
type ConfigureCommand struct {
	baseURLPrompt promptRunner
	adminIDPrompt promptRunner
	secretPrompt  promptRunner
	dbURLPrompt   promptRunner
}

func (c *ConfigureCommand) Command() *cobra.Command {
	var outPath string

	if c.baseURLPrompt == nil {
		c.baseURLPrompt = &promptui.Prompt{
			Label:   "Payment provider base URL",
			Default: "https://api.provider.example.com",
		}
	}
	if c.adminIDPrompt == nil {
		c.adminIDPrompt = &promptui.Prompt{Label: "Payment provider admin ID"}
	}
	if c.secretPrompt == nil {
		c.secretPrompt = &promptui.Prompt{
			Label: "Payment provider admin secret",
			Mask:  '*',
			Validate: func(s string) error {
				if len(s) == 0 {
					return fmt.Errorf("admin secret must not be empty")
				}
				return nil
			},
		}
	}
	if c.dbURLPrompt == nil {
		c.dbURLPrompt = &promptui.Prompt{
			Label:   "Postgres DB URL",
			Default: "postgres://localhost:5432/verification?sslmode=disable",
		}
	}

	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Interactively writes a .env file with provider credentials and the database URL",
		Long:  "Prompts for the payment provider's base URL and admin credentials and for the database URL, then writes them to a .env file so the worker command can pick them up without flags.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			answers, err := c.prompt()
			if err != nil {
				return fmt.Errorf("collecting answers: %w", err)
			}
			return c.writeEnvFile(outPath, answers)
		},
	}

	cmd.Flags().StringVar(&outPath, "out", ".env", "Path of the .env file to write")

	return cmd
}

type configureAnswers struct {
	providerBaseURL string
	providerAdminID string
	adminSecret     string
	databaseURL     string
}

func (c *ConfigureCommand) prompt() (configureAnswers, error) {
	var answers configureAnswers

	baseURL, err := c.baseURLPrompt.Run()
	if err != nil {
		return answers, fmt.Errorf("reading provider base URL: %w", err)
	}
	answers.providerBaseURL = strings.TrimSpace(baseURL)

	adminID, err := c.adminIDPrompt.Run()
	if err != nil {
		return answers, fmt.Errorf("reading provider admin ID: %w", err)
	}
	answers.providerAdminID = strings.TrimSpace(adminID)

	secret, err := c.secretPrompt.Run()
	if err != nil {
		return answers, fmt.Errorf("reading provider admin secret: %w", err)
	}
	answers.adminSecret = secret

	dbURL, err := c.dbURLPrompt.Run()
	if err != nil {
		return answers, fmt.Errorf("reading database URL: %w", err)
	}
	answers.databaseURL = strings.TrimSpace(dbURL)

	return answers, nil
}

func (c *ConfigureCommand) writeEnvFile(path string, a configureAnswers) error {
	content := fmt.Sprintf(
		"DATABASE_URL=%s\nPROVIDER_BASE_URL=%s\nPROVIDER_ADMIN_ID=%s\nPROVIDER_ADMIN_SECRET=%s\n",
		a.databaseURL, a.providerBaseURL, a.providerAdminID, a.adminSecret,
	)

	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	fmt.Printf("Wrote %s\n", path)
	return nil
}
