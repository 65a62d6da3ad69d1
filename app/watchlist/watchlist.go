package watchlist

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Entry is one user's set of keywords to track.
type Entry struct {
	User     string   `yaml:"user"`
	Keywords []string `yaml:"keywords"`
}

type file struct {
	Watchlists []Entry `yaml:"watchlists"`
}

// Load reads the watchlist YAML file. A missing file is not an error: the
// watchlist is optional and the service runs fine with API-created stories
// only.
func Load(path string) ([]Entry, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read watchlist file: %w", err)
	}

	var parsed file
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse watchlist file: %w", err)
	}

	for i, entry := range parsed.Watchlists {
		if strings.TrimSpace(entry.User) == "" {
			return nil, fmt.Errorf("watchlist entry %d: user is required", i)
		}
		for j, keyword := range entry.Keywords {
			if strings.TrimSpace(keyword) == "" {
				return nil, fmt.Errorf("watchlist entry %d: keyword %d is empty", i, j)
			}
		}
	}

	return parsed.Watchlists, nil
}
