// Package secrets keeps provider credentials in the OS keyring instead of
// the config file.
package secrets

import (
	"errors"
	"strings"

	"github.com/zalando/go-keyring"
)

const service = "jobscout-engine"

// GetIMAPPassword looks up the password for an email-alert source.
func GetIMAPPassword(account string) (string, error) {
	if strings.TrimSpace(account) == "" {
		return "", errors.New("keyring account name is empty")
	}
	return keyring.Get(service, account)
}

func SetIMAPPassword(account, password string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	if password == "" {
		return errors.New("password is empty")
	}
	return keyring.Set(service, account, password)
}

func DeleteIMAPPassword(account string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	return keyring.Delete(service, account)
}
