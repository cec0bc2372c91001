package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ehr/hms/internal/apperr"
	"github.com/ehr/hms/internal/platform/auth"
	"github.com/ehr/hms/internal/render"
	"github.com/ehr/hms/internal/session"
)

func loginCmd(a *app) *cobra.Command {
	var creds session.Credentials
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if creds.Password == "" {
				pw, err := readLine(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read password: %w", err)
				}
				creds.Password = pw
			}
			s, err := a.sessions.Login(cmd.Context(), creds)
			if err != nil {
				render.Error(a.out, err)
				if apperr.Is(err, apperr.KindTwoFactorRequired) {
					fmt.Fprintln(a.out, "  Sign in again with --otp.")
				}
				return reported{err}
			}
			fmt.Fprintf(a.out, "Signed in as %s (%s)\n", s.User.Name, s.User.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&creds.Email, "email", "", "account email")
	cmd.Flags().StringVar(&creds.Password, "password", "", "password (read from stdin when omitted)")
	cmd.Flags().StringVar(&creds.OTP, "otp", "", "six-digit code for two-factor accounts")
	cmd.MarkFlagRequired("email")
	return cmd
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func logoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.sessions.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Signed out.")
			return nil
		},
	}
}

func whoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, ok := a.sessions.Identity()
			if !ok {
				err := apperr.New(apperr.KindAuthentication, "whoami", "not signed in")
				render.Error(a.out, err)
				return reported{err}
			}
			render.Identity(a.out, id)
			return nil
		},
	}
}

// homeCmd shows the landing page of the signed-in role.
func homeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "home",
		Aliases: []string{"dashboard"},
		Short:   "Show the dashboard for your role",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, ok := a.sessions.Identity()
			if !ok {
				err := apperr.New(apperr.KindAuthentication, "home", "not signed in")
				render.Error(a.out, err)
				return reported{err}
			}
			switch id.Role {
			case auth.RoleNurse:
				return a.showNurseDashboard(cmd)
			case auth.RoleDoctor:
				return a.showDoctorDashboard(cmd)
			case auth.RoleLabTechnician:
				return a.showLabTests(cmd, "", "")
			case auth.RoleReceptionist:
				return a.showAppointments(cmd, "", "")
			case auth.RoleManager:
				return a.showHospital(cmd)
			case auth.RoleRegionalAdmin:
				return a.showRegional(cmd)
			case auth.RoleSuperAdmin:
				return a.showRegions(cmd)
			}
			return apperr.New(apperr.KindForbidden, "home", "no dashboard for role "+id.Role)
		},
	}
}
