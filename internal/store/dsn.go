package store

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// parseDSN accepts a plain file path or a sqlite:// URL and returns the
// driver DSN.
func parseDSN(dsn string) (string, error) {
	if strings.TrimSpace(dsn) == "" {
		return "", fmt.Errorf("empty scene document path")
	}
	if !strings.Contains(dsn, "://") {
		return dsn, nil
	}
	if !strings.HasPrefix(dsn, "sqlite://") {
		return "", fmt.Errorf("invalid scene DSN scheme, expected sqlite://")
	}

	rest := strings.TrimPrefix(dsn, "sqlite://")
	if rest == ":memory:" {
		return ":memory:", nil
	}

	path, query, hasQuery := strings.Cut(rest, "?")
	unescaped, err := url.PathUnescape(path)
	if err != nil {
		return "", fmt.Errorf("unescaping path: %w", err)
	}
	path = unescaped
	if !filepath.IsAbs(path) && !strings.HasPrefix(path, "./") {
		path = "./" + path
	}
	if hasQuery {
		return path + "?" + query, nil
	}
	return path, nil
}

// documentPath strips query parameters from a driver DSN, leaving the file
// path that "//" references resolve against.
func documentPath(driverDSN string) string {
	path, _, _ := strings.Cut(driverDSN, "?")
	return path
}
