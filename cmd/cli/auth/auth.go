package auth

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/hvichare/go-estate/cmd/cli/config"
	"github.com/hvichare/go-estate/internal/middleware"
	"github.com/spf13/cobra"
)

// InitAuth registers signup/login/logout on the root command.
func InitAuth(rootCmd *cobra.Command) {
	rootCmd.AddCommand(signupCmd(), loginCmd(), logoutCmd())
}

// ==========================
// Signup
// ==========================
func signupCmd() *cobra.Command {
	var username, email, password string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Register a new account",
		Long:  "Register a new account with the go-estate API. Sign in separately afterwards.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" || email == "" || password == "" {
				return fmt.Errorf("username, email and password are required")
			}

			payload := map[string]string{"username": username, "email": email, "password": password}
			resp, err := postJSON("/api/auth/signup", payload)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusCreated {
				return apiError(resp)
			}

			fmt.Println("Account created. You can now log in.")
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Display name")
	cmd.Flags().StringVar(&email, "email", "", "Sign-in email")
	cmd.Flags().StringVar(&password, "password", "", "Password")

	return cmd
}

// ==========================
// Login
// ==========================
func loginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the go-estate API",
		Long:  "Authenticate and store the session token locally for subsequent CLI commands.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" || password == "" {
				return fmt.Errorf("email and password are required")
			}

			resp, err := postJSON("/api/auth/signin", map[string]string{"email": email, "password": password})
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return apiError(resp)
			}

			// The API delivers the session as an http-only cookie.
			var token string
			for _, c := range resp.Cookies() {
				if c.Name == middleware.AccessTokenCookie {
					token = c.Value
				}
			}
			if token == "" {
				return fmt.Errorf("login succeeded but no session cookie returned")
			}

			var user struct {
				ID       string `json:"id"`
				Username string `json:"username"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
				return fmt.Errorf("decode user: %w", err)
			}

			if err := config.SaveSession(config.Session{Token: token, UserID: user.ID}); err != nil {
				return fmt.Errorf("save session: %w", err)
			}

			fmt.Printf("Logged in as %s. Session stored locally.\n", user.Username)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Sign-in email")
	cmd.Flags().StringVar(&password, "password", "", "Password")

	return cmd
}

// ==========================
// Logout
// ==========================
func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and discard the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.ClearSession(); err != nil {
				return err
			}
			fmt.Println("Logged out.")
			return nil
		},
	}
}

func postJSON(path string, payload any) (*http.Response, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequest("POST", config.APIURL()+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return http.DefaultClient.Do(req)
}

func apiError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	var out struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &out); err == nil && out.Message != "" {
		return fmt.Errorf("API error (%d): %s", resp.StatusCode, out.Message)
	}
	return fmt.Errorf("API error (%d): %s", resp.StatusCode, string(body))
}
