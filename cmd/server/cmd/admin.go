package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"portfolio/backend/internal/config"
	"portfolio/backend/internal/infrastructure/password"
	userusecase "portfolio/backend/internal/usecase/user"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	adminEmail string
	adminName  string
	adminRole  string
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Provision site owner accounts",
}

var adminCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an account (prompts for the password)",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeStore, err := newUserService(cmd)
		if err != nil {
			return err
		}
		defer closeStore()

		pw, err := promptNewPassword(cmd.InOrStdin(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}

		user, err := svc.Create(cmd.Context(), userusecase.CreateInput{
			Email:    adminEmail,
			Name:     adminName,
			Password: pw,
			Role:     adminRole,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s) id=%s\n", user.Email, user.Role, user.ID)
		return nil
	},
}

var adminSetPasswordCmd = &cobra.Command{
	Use:   "set-password",
	Short: "Reset an account password (prompts for the new password)",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeStore, err := newUserService(cmd)
		if err != nil {
			return err
		}
		defer closeStore()

		pw, err := promptNewPassword(cmd.InOrStdin(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		if err := svc.SetPassword(cmd.Context(), adminEmail, pw); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "password updated for %s\n", adminEmail)
		return nil
	},
}

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password",
	Short: "Print a bcrypt hash for a password read from stdin",
	RunE: func(cmd *cobra.Command, args []string) error {
		pw, err := readSecret(cmd.InOrStdin(), cmd.ErrOrStderr(), "Password: ")
		if err != nil {
			return err
		}
		hashed, err := password.NewBcryptHasher().Hash([]byte(pw))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hashed)
		return nil
	},
}

func newUserService(cmd *cobra.Command) (*userusecase.Service, func() error, error) {
	cfg, err := config.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger := newLogger(cfg)
	users, closeUsers, err := openUserStore(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return userusecase.NewService(users, password.NewBcryptHasher()), closeUsers, nil
}

func promptNewPassword(in io.Reader, out io.Writer) (string, error) {
	first, err := readSecret(in, out, "New password: ")
	if err != nil {
		return "", err
	}
	if isTerminal(in) {
		second, err := readSecret(in, out, "Repeat password: ")
		if err != nil {
			return "", err
		}
		if first != second {
			return "", errors.New("passwords do not match")
		}
	}
	return first, nil
}

// readSecret reads without echo from a terminal, or one line from a pipe.
func readSecret(in io.Reader, out io.Writer, prompt string) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(out, prompt)
		b, err := readPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func isTerminal(in io.Reader) bool {
	f, ok := in.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func init() {
	rootCmd.AddCommand(adminCmd, hashPasswordCmd)
	adminCmd.AddCommand(adminCreateCmd, adminSetPasswordCmd)

	adminCmd.PersistentFlags().StringVar(&adminEmail, "email", "", "Account email (exact match)")
	_ = adminCmd.MarkPersistentFlagRequired("email")
	adminCreateCmd.Flags().StringVar(&adminName, "name", "", "Display name")
	adminCreateCmd.Flags().StringVar(&adminRole, "role", "ADMIN", "Role: ADMIN or USER")
}
