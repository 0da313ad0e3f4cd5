// Package mapping manages the cached email/API-key association used to
// enumerate the key set to query. The file on disk maps email to API key;
// consumers work with the inverted form.
package mapping

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/teamflex/teamcredits/internal/analytics"
)

const filePrefix = "email_api_mapping_"

// userTableWindow is how far back the directory query reaches when
// regenerating the mapping.
const userTableWindow = 30 * 24 * time.Hour

// KeyEmailMap maps API key to email. Emails are currently unused past this
// package but kept for future per-user breakdowns.
type KeyEmailMap map[string]string

// Keys returns the API keys in sorted order so runs enumerate
// deterministically.
func (m KeyEmailMap) Keys() []string {
	keys := lo.Keys(m)
	sort.Strings(keys)
	return keys
}

// List returns every mapping file across the given directories. Filenames
// embed the generation date, so lexicographic order is chronological and the
// newest file sorts last.
func List(dirs ...string) []string {
	var files []string
	for _, dir := range dirs {
		matches, err := filepath.Glob(filepath.Join(dir, filePrefix+"*.json"))
		if err != nil {
			continue
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files
}

// FindLatest returns the newest mapping file across the given directories.
func FindLatest(dirs ...string) (string, bool) {
	files := List(dirs...)
	if len(files) == 0 {
		return "", false
	}
	return files[len(files)-1], true
}

// Load reads an email→key mapping file and returns the inverted form.
func Load(path string) (KeyEmailMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading mapping file: %w", err)
	}

	var emailToKey map[string]string
	if err := json.Unmarshal(data, &emailToKey); err != nil {
		return nil, fmt.Errorf("parsing mapping file %s: %w", path, err)
	}

	inverted := make(KeyEmailMap, len(emailToKey))
	for email, apiKey := range emailToKey {
		inverted[apiKey] = email
	}
	return inverted, nil
}

// Generate rebuilds the mapping from the user directory API and writes it to
// outputDir as email_api_mapping_<date>.json. It returns the written path.
func Generate(ctx context.Context, client *analytics.Client, outputDir string, now time.Time) (string, error) {
	entries, err := client.FetchUserTable(ctx, now.Add(-userTableWindow), now)
	if err != nil {
		return "", fmt.Errorf("fetching user table: %w", err)
	}

	emailToKey := make(map[string]string)
	for _, entry := range entries {
		if entry.Email == "" || entry.APIKey == "" {
			continue
		}
		emailToKey[entry.Email] = entry.APIKey
	}
	if len(emailToKey) == 0 {
		return "", fmt.Errorf("user table returned no email/API-key pairs")
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("creating output dir: %w", err)
	}

	data, err := json.MarshalIndent(emailToKey, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling mapping: %w", err)
	}
	data = append(data, '\n')

	path := filepath.Join(outputDir, filePrefix+now.Format("2006-01-02")+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing mapping file: %w", err)
	}
	return path, nil
}
