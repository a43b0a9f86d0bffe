package utils

import "strings"

func TruncateString(str string, borderSizeToKeep int) string {
	if len(str) <= 2*borderSizeToKeep {
		return str
	}
	return str[:borderSizeToKeep] + "..." + str[len(str)-borderSizeToKeep:]
}

// TrimAndLower trims and lowercases a string.
func TrimAndLower(str string) string {
	return strings.TrimSpace(strings.ToLower(str))
}
