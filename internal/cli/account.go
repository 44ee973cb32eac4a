package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/roach88/shelfswap/internal/domain"
	"github.com/roach88/shelfswap/internal/engine"
)

// UserView is a user as printed by the CLI. The secret is never shown.
type UserView struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Phone string      `json:"phone,omitempty"`
	Role  domain.Role `json:"role"`
}

func newUserView(u domain.User) UserView {
	return UserView{ID: u.ID, Name: u.Name, Email: u.Email, Phone: u.Phone, Role: u.Role}
}

func (v UserView) String() string {
	return fmt.Sprintf("%s <%s> (%s, id %s)", v.Name, v.Email, v.Role, v.ID)
}

// RegisterOptions holds flags for the register command.
type RegisterOptions struct {
	*RootOptions
	Name   string
	Email  string
	Secret string
	Phone  string
	Role   string
}

// NewRegisterCommand creates the register command.
func NewRegisterCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RegisterOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Long: `Create an account and make it the signed-in user.

Owners list books; seekers search and request them. If --secret is not
given it is read from the terminal without echo, or from stdin.

Examples:
  shelfswap register --name "Olivia Owner" --email olivia@example.com --role owner
  echo s3cret | shelfswap register --name Sam --email sam@example.com --role seeker`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegister(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "display name (required)")
	cmd.Flags().StringVar(&opts.Email, "email", "", "email address (required)")
	cmd.Flags().StringVar(&opts.Secret, "secret", "", "secret; prompted for when omitted")
	cmd.Flags().StringVar(&opts.Phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&opts.Role, "role", string(domain.RoleSeeker), "owner or seeker")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func runRegister(opts *RegisterOptions, cmd *cobra.Command) error {
	secret, err := secretFromFlagOrInput(opts.Secret, cmd)
	if err != nil {
		_ = newFormatter(opts.RootOptions, cmd).Error(ErrCodeInput, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read secret", err)
	}

	return withApp(opts.RootOptions, cmd, func(ctx context.Context, app *App, f *OutputFormatter) error {
		u, err := app.Engine.Register(opts.Name, opts.Email, secret, opts.Phone, domain.Role(opts.Role))
		if err != nil {
			return f.EngineError(err)
		}
		return outputSignedIn(f, u)
	})
}

// LoginOptions holds flags for the login command.
type LoginOptions struct {
	*RootOptions
	Email  string
	Secret string
}

// NewLoginCommand creates the login command.
func NewLoginCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LoginOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in",
		Long: `Sign in with email and secret. The session is stored with the
rest of the state, so later commands act as this user until logout.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Email, "email", "", "email address (required)")
	cmd.Flags().StringVar(&opts.Secret, "secret", "", "secret; prompted for when omitted")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func runLogin(opts *LoginOptions, cmd *cobra.Command) error {
	secret, err := secretFromFlagOrInput(opts.Secret, cmd)
	if err != nil {
		_ = newFormatter(opts.RootOptions, cmd).Error(ErrCodeInput, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read secret", err)
	}

	return withApp(opts.RootOptions, cmd, func(ctx context.Context, app *App, f *OutputFormatter) error {
		u, err := app.Engine.Login(opts.Email, secret)
		if err != nil {
			return f.EngineError(err)
		}
		return outputSignedIn(f, u)
	})
}

func outputSignedIn(f *OutputFormatter, u domain.User) error {
	view := newUserView(u)
	if f.Format == "json" {
		return f.Success(view)
	}
	fmt.Fprintf(f.Writer, "✓ Signed in as %s\n", view)
	return nil
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "logout",
		Short:         "Sign out",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(ctx context.Context, app *App, f *OutputFormatter) error {
				app.Engine.Logout()
				if f.Format == "json" {
					return f.Success(map[string]bool{"signed_out": true})
				}
				fmt.Fprintln(f.Writer, "✓ Signed out")
				return nil
			})
		},
	}
}

// NewWhoamiCommand creates the whoami command.
func NewWhoamiCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "whoami",
		Short:         "Show the signed-in user",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(rootOpts, cmd, func(ctx context.Context, app *App, f *OutputFormatter) error {
				u, ok := app.Engine.CurrentUser()
				if !ok {
					return f.EngineError(engine.ErrUnauthenticated)
				}
				view := newUserView(u)
				if f.Format == "json" {
					return f.Success(view)
				}
				fmt.Fprintln(f.Writer, view)
				return nil
			})
		},
	}
}

// secretFromFlagOrInput returns flagValue if set. Otherwise it prompts on
// a terminal without echo, or reads one line from the command's input.
func secretFromFlagOrInput(flagValue string, cmd *cobra.Command) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}

	in := cmd.InOrStdin()
	if file, ok := in.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "Secret: ")
		b, err := term.ReadPassword(int(file.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read secret: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read secret: %w", err)
	}
	secret := strings.TrimRight(line, "\r\n")
	if secret == "" {
		return "", errors.New("secret is required")
	}
	return secret, nil
}
