package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/bandemoon/bandemoon-go/api"
	"github.com/bandemoon/bandemoon-go/apimodel"
	"github.com/bandemoon/bandemoon-go/credentials"
	"github.com/bandemoon/bandemoon-go/internal/config"
	apierrors "github.com/bandemoon/bandemoon-go/internal/errors"
	"github.com/bandemoon/bandemoon-go/internal/utils"
	"github.com/bandemoon/bandemoon-go/session"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/ssh/terminal"
)

func rootCmd(cfg config.Config, client *api.Client, sess *session.Session, store *credentials.Store) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "bandemoon",
		Short:         "Bandemoon musician-networking client",
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			displayAppname(cfg.GetAppName())
			printSessionStatus(sess, store)
		},
	}

	cmd.AddCommand(
		loginCmd(client, sess),
		logoutCmd(client, sess),
		whoamiCmd(sess),
		profileCmd(client, sess),
		validateCmd(client, sess),
		statusCmd(cfg, sess, store),
	)
	return cmd
}

func loginCmd(client *api.Client, sess *session.Session) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with your Bandemoon account",
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if email == "" {
				if email, err = prompt("Email: "); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = promptPassword("Password: "); err != nil {
					return err
				}
			}

			sess.SetLoading(true)
			defer sess.SetLoading(false)

			resp := client.Login(cmd.Context(), apimodel.LoginRequest{Email: email, Password: password})
			if !resp.Success {
				return fmt.Errorf("login failed: %s", resp.Message)
			}
			if resp.User == nil || resp.AccessToken == "" || resp.RefreshToken == "" {
				return fmt.Errorf("login response is missing credentials")
			}

			if status := sess.Login(resp.User, resp.AccessToken, resp.RefreshToken); !status.Persisted {
				fmt.Println(colourise(Yellow, "Warning: session could not be saved; you will need to log in again next time."))
			}
			fmt.Printf("%s Logged in as %s %s <%s>\n", colourise(Green, "OK"), resp.User.FirstName, resp.User.LastName, resp.User.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when omitted)")
	return cmd
}

func logoutCmd(client *api.Client, sess *session.Session) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Log out and clear the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !sess.IsAuthenticated() {
				return apierrors.ErrNotAuthenticated
			}

			var resp *apimodel.StatusResponse
			if all {
				resp = client.LogoutAll(cmd.Context())
			} else {
				resp = client.Logout(cmd.Context(), sess.RefreshToken())
			}
			if !resp.Success {
				// The server-side revocation failed, but the local session
				// is cleared regardless so the device ends up logged out.
				fmt.Println(colourise(Yellow, "Warning: "+resp.Message))
			}

			sess.Logout()
			fmt.Printf("%s Logged out\n", colourise(Green, "OK"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "log out of every device")
	return cmd
}

func whoamiCmd(sess *session.Session) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			user := sess.User()
			if user == nil || !sess.IsAuthenticated() {
				return apierrors.ErrNotAuthenticated
			}
			fmt.Printf("%s %s <%s> (id %d)\n", user.FirstName, user.LastName, user.Email, user.ID)
			return nil
		},
	}
}

func profileCmd(client *api.Client, sess *session.Session) *cobra.Command {
	return &cobra.Command{
		Use:   "profile [userID]",
		Short: "Show your profile, or another user's by ID",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !sess.IsAuthenticated() {
				return apierrors.ErrNotAuthenticated
			}

			var resp *apimodel.ProfileResponse
			if len(args) == 1 {
				userID, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid user ID %q", args[0])
				}
				resp = client.UserProfile(cmd.Context(), userID)
			} else {
				resp = client.MyProfile(cmd.Context())
			}

			if !resp.Success || resp.UserProfile == nil {
				return fmt.Errorf("failed to fetch profile: %s", resp.Message)
			}
			printProfile(resp.UserProfile)
			return nil
		},
	}
}

func validateCmd(client *api.Client, sess *session.Session) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check whether the stored access token is still accepted",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !sess.IsAuthenticated() {
				return apierrors.ErrNotAuthenticated
			}
			resp := client.ValidateToken(cmd.Context())
			if resp.Valid {
				fmt.Printf("%s Token is valid\n", colourise(Green, "OK"))
				return nil
			}
			if resp.Message != "" {
				return fmt.Errorf("token is not valid: %s", resp.Message)
			}
			return fmt.Errorf("token is not valid")
		},
	}
}

func statusCmd(cfg config.Config, sess *session.Session, store *credentials.Store) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show session and configuration status",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("API:      %s\n", cfg.GetBaseURL())
			fmt.Printf("Data dir: %s\n", cfg.GetDataFolder())
			printSessionStatus(sess, store)
		},
	}
}

func printSessionStatus(sess *session.Session, store *credentials.Store) {
	if sess.IsAuthenticated() {
		user := sess.User()
		fmt.Printf("Session:  %s as %s %s <%s>\n", colourise(Green, "logged in"), user.FirstName, user.LastName, user.Email)
		return
	}
	if store.HasSession() {
		fmt.Printf("Session:  %s\n", colourise(Yellow, "stored tokens present, identity missing"))
		return
	}
	fmt.Printf("Session:  %s\n", colourise(Gray, "logged out"))
}

func printProfile(p *apimodel.UserProfile) {
	fmt.Printf("%s %s <%s> (id %d)\n", p.FirstName, p.LastName, p.Email, p.ID)

	fields := []struct {
		label string
		value string
	}{
		{"Location", utils.Value(p.Location)},
		{"Bio", utils.Value(p.Bio)},
		{"Instruments", utils.Value(p.MusicalInstruments)},
		{"Genres", utils.Value(p.MusicalGenres)},
		{"Experience", utils.Value(p.ExperienceLevel)},
		{"Availability", utils.Value(p.Availability)},
		{"Website", utils.Value(p.Website)},
		{"Phone", utils.Value(p.PhoneNumber)},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		fmt.Printf("  %s %s\n", colourise(Cyan, f.label+":"), f.value)
	}
	fmt.Printf("  %s %s\n", colourise(Gray, "Member since:"), p.CreatedAt)
}

func prompt(label string) (string, error) {
	fmt.Print(label)
	reader := bufio.NewReader(os.Stdin)
	value, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(value), nil
}

func promptPassword(label string) (string, error) {
	fmt.Print(label)
	password, err := terminal.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(password), nil
}
