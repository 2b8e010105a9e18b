// Package vpn provides VPN connection management functionality.
// This file contains the auth-user-pass file handling.
package vpn

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/yllada/vpn-toggle/common"
)

// credentialsDir is where auth-user-pass files are written.
var credentialsDir = filepath.Join(os.TempDir(), common.ConfigDirName)

// createCredentialsFile writes creds in OpenVPN's auth-user-pass format to
// a private temporary file and returns its path.
func createCredentialsFile(creds common.Credentials) (string, error) {
	if creds.Username == "" {
		return "", fmt.Errorf("%w: empty username", common.ErrCredentialsNotFound)
	}

	if err := os.MkdirAll(credentialsDir, 0700); err != nil {
		return "", err
	}

	f, err := os.CreateTemp(credentialsDir, fmt.Sprintf("cred-%d-*", time.Now().UnixNano()))
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "%s\n%s\n", creds.Username, creds.Password); err != nil {
		os.Remove(f.Name())
		return "", err
	}

	return f.Name(), nil
}
