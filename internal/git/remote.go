package git

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/waabox/vibedeck/internal/domain"
)

// ErrNotRepository is returned when no .git directory is found.
var ErrNotRepository = errors.New("not inside a git repository")

// DetectRepository looks for .git/config in dir and its parents and returns
// a Repository built from the origin remote URL.
func DetectRepository(dir string) (domain.Repository, error) {
	root, err := findRoot(dir)
	if err != nil {
		return domain.Repository{}, err
	}
	configPath := filepath.Join(root, ".git", "config")
	f, err := os.Open(configPath)
	if err != nil {
		return domain.Repository{}, fmt.Errorf("could not open .git/config: %w", err)
	}
	defer f.Close()

	var inOrigin bool
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == `[remote "origin"]` {
			inOrigin = true
			continue
		}
		if inOrigin && strings.HasPrefix(line, "[") {
			break
		}
		if inOrigin && strings.HasPrefix(line, "url") {
			parts := strings.SplitN(line, "=", 2)
			if len(parts) == 2 {
				return ParseRemoteURL(strings.TrimSpace(parts[1]))
			}
		}
	}
	return domain.Repository{}, errors.New("no origin remote found in .git/config")
}

func findRoot(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		if info, err := os.Stat(filepath.Join(abs, ".git")); err == nil && info.IsDir() {
			return abs, nil
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			return "", ErrNotRepository
		}
		abs = parent
	}
}

// ParseRemoteURL parses a git remote URL and returns a Repository.
// Supports HTTPS (https://github.com/owner/repo.git), scp-like SSH
// (git@github.com:owner/repo.git) and ssh:// URLs. Nested groups
// (gitlab.com/group/sub/repo) keep the full group path as owner.
func ParseRemoteURL(rawURL string) (domain.Repository, error) {
	normalized := strings.TrimSuffix(strings.TrimSuffix(rawURL, "/"), ".git")

	var host, path string
	switch {
	case strings.HasPrefix(normalized, "https://"),
		strings.HasPrefix(normalized, "http://"),
		strings.HasPrefix(normalized, "ssh://"):
		withoutScheme := normalized[strings.Index(normalized, "://")+3:]
		parts := strings.SplitN(withoutScheme, "/", 2)
		if len(parts) != 2 {
			return domain.Repository{}, fmt.Errorf("invalid remote URL: %s", rawURL)
		}
		host, path = parts[0], parts[1]
	case strings.Contains(normalized, "@") && strings.Contains(normalized, ":"):
		trimmed := normalized[strings.Index(normalized, "@")+1:]
		parts := strings.SplitN(trimmed, ":", 2)
		host, path = parts[0], parts[1]
	default:
		return domain.Repository{}, fmt.Errorf("unsupported remote URL format: %s", rawURL)
	}

	// Drop credentials and ports.
	if i := strings.LastIndex(host, "@"); i >= 0 {
		host = host[i+1:]
	}
	if i := strings.Index(host, ":"); i >= 0 {
		host = host[:i]
	}

	slash := strings.LastIndex(path, "/")
	if host == "" || slash <= 0 || slash == len(path)-1 {
		return domain.Repository{}, fmt.Errorf("invalid remote URL path: %s", rawURL)
	}
	return domain.Repository{
		Host:      strings.ToLower(host),
		Owner:     path[:slash],
		Name:      path[slash+1:],
		RemoteURL: rawURL,
	}, nil
}
