package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/shelfswap/internal/config"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                     `json:"valid"`
	Errors []config.ValidationError `json:"errors,omitempty"`
}

// NewConfigCommand creates the config command group.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration",
	}

	cmd.AddCommand(newConfigCheckCommand(rootOpts))
	cmd.AddCommand(newConfigShowCommand(rootOpts))

	return cmd
}

func newConfigCheckCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration without opening anything",
		Long: `Load the config file, .env and environment overrides, and validate
the result against the configuration schema. Nothing is connected to.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigCheck(rootOpts, cmd)
		},
	}
}

func runConfigCheck(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	formatter.VerboseLog("Loading config from %q", opts.ConfigPath)
	_, err := loadConfig(opts)

	var invalid *config.InvalidError
	switch {
	case errors.As(err, &invalid):
		return outputValidationErrors(formatter, invalid.Errors)
	case err != nil:
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true})
	}
	fmt.Fprintln(formatter.Writer, "✓ Configuration valid")
	return nil
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []config.ValidationError) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data: ValidationResult{
				Valid:  false,
				Errors: errs,
			},
			Error: &CLIError{
				Code:    ErrCodeConfigInvalid,
				Message: errs[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		// Validation failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		fmt.Fprintf(formatter.Writer, "  %s %s: %s\n", err.Code, err.Field, err.Message)
	}

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}

func newConfigShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show",
		Short:         "Print the effective configuration with secrets masked",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)

			cfg, err := loadConfig(rootOpts)
			if err != nil {
				_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
				return WrapExitError(ExitCommandError, "failed to load config", err)
			}
			cfg = maskSecrets(cfg)

			if formatter.Format == "json" {
				return formatter.Success(cfg)
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to encode config", err)
			}
			_, err = formatter.Writer.Write(data)
			return err
		},
	}
}

const masked = "********"

// maskSecrets returns a copy of cfg with credentials replaced.
func maskSecrets(cfg config.Config) config.Config {
	users := make([]config.SeedUser, len(cfg.SeedUsers))
	for i, u := range cfg.SeedUsers {
		if u.Secret != "" {
			u.Secret = masked
		}
		users[i] = u
	}
	cfg.SeedUsers = users

	if cfg.Cover.Minio.SecretKey != "" {
		cfg.Cover.Minio.SecretKey = masked
	}
	if cfg.Notify.RabbitMQ.URL != "" {
		cfg.Notify.RabbitMQ.URL = maskURLPassword(cfg.Notify.RabbitMQ.URL)
	}
	return cfg
}

// maskURLPassword hides the password of a URL such as amqp://user:pw@host.
func maskURLPassword(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); !ok {
		return raw
	}
	u.User = url.UserPassword(u.User.Username(), masked)
	return u.String()
}
