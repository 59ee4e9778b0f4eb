package utils

import (
	"fmt"
	"strings"

	"github.com/hayashide/project-management-api/internal/constants"
)

// NormalizeProjectKey upper-cases and validates a project key ("PROJ" in
// "PROJ-42"). Keys are 2-10 characters of A-Z and 0-9, starting with a letter.
func NormalizeProjectKey(key string) (string, error) {
	key = strings.ToUpper(strings.TrimSpace(key))

	if len(key) < constants.MinProjectKeyLength || len(key) > constants.MaxProjectKeyLength {
		return "", fmt.Errorf("project key must be %d-%d characters",
			constants.MinProjectKeyLength, constants.MaxProjectKeyLength)
	}
	if key[0] < 'A' || key[0] > 'Z' {
		return "", fmt.Errorf("project key must start with a letter")
	}
	for _, r := range key {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return "", fmt.Errorf("project key may only contain letters and digits")
		}
	}

	return key, nil
}
