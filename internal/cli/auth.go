package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/afisha/events/internal/models"
)

func (a *App) registerCmd() *cobra.Command {
	var req models.RegisterRequest
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req.Username = strings.TrimSpace(req.Username)
			req.Email = strings.TrimSpace(req.Email)
			if err := models.Validate(req); err != nil {
				return err
			}
			res, err := a.auth.Register(cmd.Context(), req.Username, req.Email, req.Password)
			if err != nil {
				return err
			}
			if err := a.session.Login(cmd.Context(), res.User, res.Token); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Registered. Welcome, %s!\n", res.User.Username)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Username, "username", "", "display name")
	cmd.Flags().StringVar(&req.Email, "email", "", "email address")
	cmd.Flags().StringVar(&req.Password, "password", "", "password (at least 6 characters)")
	return cmd
}

func (a *App) loginCmd() *cobra.Command {
	var req models.LoginRequest
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req.Email = strings.TrimSpace(req.Email)
			if err := models.Validate(req); err != nil {
				return err
			}
			res, err := a.auth.Login(cmd.Context(), req.Email, req.Password)
			if err != nil {
				return err
			}
			if err := a.session.Login(cmd.Context(), res.User, res.Token); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Welcome, %s!\n", res.User.Username)
			if res.User.IsAdmin {
				fmt.Fprintln(a.out, "Signed in with administrator rights.")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Email, "email", "", "email address")
	cmd.Flags().StringVar(&req.Password, "password", "", "password")
	return cmd
}

func (a *App) logoutCmd() *cobra.Command {
	var revoke bool
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			token := a.session.Token()
			if revoke && token != "" && (a.bypass == nil || !a.bypass.IsSentinel(token)) {
				// The local session is cleared either way.
				if err := a.backend.RevokeSession(cmd.Context(), token); err != nil {
					a.log.Warn("revoke session", "error", err)
				}
			}
			if err := a.session.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Signed out.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&revoke, "revoke", false, "also end the session on the backend")
	return cmd
}

func (a *App) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			u := a.session.User()
			if u == nil {
				fmt.Fprintln(a.out, "Not signed in.")
				return nil
			}
			role := "user"
			if u.IsAdmin {
				role = "administrator"
			}
			fmt.Fprintf(a.out, "%s <%s> (%s)\n", u.Username, u.Email, role)
			return nil
		},
	}
}
