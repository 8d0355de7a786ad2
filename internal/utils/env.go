package utils

import (
	"os"
	"strings"
)

// SafeEnv returns the trimmed value of the first non-empty key, or fallback.
func SafeEnv(fallback string, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return fallback
}
