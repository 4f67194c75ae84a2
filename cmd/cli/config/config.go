package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

const defaultAPIURL = "http://localhost:8080"

const sessionFileName = ".go_estate_session"

// APIURL returns the base URL for the go-estate API.
// It can be overridden with the GO_ESTATE_API_URL environment variable.
func APIURL() string {
	if v := os.Getenv("GO_ESTATE_API_URL"); v != "" {
		return v
	}
	return defaultAPIURL
}

// Session is the locally cached login state: the access token the API set
// as a cookie, plus the identity it belongs to (needed for the self-scoped
// user routes).
type Session struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
}

func sessionPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, sessionFileName), nil
}

// SaveSession writes the session to the user's home directory, readable
// only by the current user.
func SaveSession(s Session) error {
	path, err := sessionPath()
	if err != nil {
		return err
	}
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// LoadSession reads the cached session. Returns an error if no login is stored.
func LoadSession() (Session, error) {
	var s Session
	path, err := sessionPath()
	if err != nil {
		return s, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return s, err
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return s, err
	}
	return s, nil
}

// ClearSession removes the cached session. Missing file is not an error.
func ClearSession() error {
	path, err := sessionPath()
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
