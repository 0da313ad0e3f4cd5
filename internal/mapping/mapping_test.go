package mapping

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/teamflex/teamcredits/internal/analytics"
)

func TestLoad_InvertsEmailToKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "email_api_mapping_2025-09-01.json")
	content := `{"a@example.com": "key-a", "b@example.com": "key-b"}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(m) != 2 {
		t.Fatalf("entries = %d, want 2", len(m))
	}
	if m["key-a"] != "a@example.com" {
		t.Errorf("m[key-a] = %q, want a@example.com", m["key-a"])
	}

	keys := m.Keys()
	if len(keys) != 2 || keys[0] != "key-a" || keys[1] != "key-b" {
		t.Errorf("Keys() = %v, want sorted [key-a key-b]", keys)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Load(missing) error = nil, want error")
	}

	bad := filepath.Join(t.TempDir(), "email_api_mapping_2025-09-01.json")
	if err := os.WriteFile(bad, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); err == nil {
		t.Error("Load(bad json) error = nil, want error")
	}
}

func TestFindLatest(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"email_api_mapping_2025-08-01.json",
		"email_api_mapping_2025-09-15.json",
		"email_api_mapping_2025-09-02.json",
		"unrelated.json",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	latest, found := FindLatest(dir)
	if !found {
		t.Fatal("FindLatest() found = false, want true")
	}
	if filepath.Base(latest) != "email_api_mapping_2025-09-15.json" {
		t.Errorf("latest = %s, want the 2025-09-15 file", latest)
	}

	if _, found := FindLatest(t.TempDir()); found {
		t.Error("FindLatest(empty dir) found = true, want false")
	}
}

func TestList(t *testing.T) {
	dirA := t.TempDir()
	dirB := t.TempDir()
	for dir, names := range map[string][]string{
		dirA: {"email_api_mapping_2025-09-15.json", "email_api_mapping_2025-07-01.json"},
		dirB: {"email_api_mapping_2025-08-10.json", "notes.txt"},
	} {
		for _, name := range names {
			if err := os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0o644); err != nil {
				t.Fatal(err)
			}
		}
	}

	files := List(dirA, dirB)
	if len(files) != 3 {
		t.Fatalf("files = %d, want 3: %v", len(files), files)
	}
	if filepath.Base(files[len(files)-1]) != "email_api_mapping_2025-09-15.json" {
		t.Errorf("newest file sorts last, got %v", files)
	}

	if files := List(t.TempDir()); len(files) != 0 {
		t.Errorf("List(empty dir) = %v, want none", files)
	}
}

func TestFindLatest_MultipleDirs(t *testing.T) {
	older := t.TempDir()
	newer := t.TempDir()
	if err := os.WriteFile(filepath.Join(older, "email_api_mapping_2025-07-01.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(newer, "email_api_mapping_2025-08-01.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	latest, found := FindLatest(older, newer)
	if !found || filepath.Base(latest) != "email_api_mapping_2025-08-01.json" {
		t.Errorf("latest = %s, found = %v", latest, found)
	}
}

func TestGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"userTableStats": [
			{"email": "a@example.com", "apiKey": "key-a"},
			{"email": "", "apiKey": "key-empty"},
			{"email": "noq@example.com", "apiKey": ""},
			{"email": "b@example.com", "apiKey": "key-b"}
		]}`))
	}))
	defer server.Close()

	client := analytics.NewClient("sk-test", analytics.WithBaseURL(server.URL))
	dir := t.TempDir()
	now := time.Date(2025, 9, 20, 10, 0, 0, 0, time.UTC)

	path, err := Generate(context.Background(), client, dir, now)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if filepath.Base(path) != "email_api_mapping_2025-09-20.json" {
		t.Errorf("path = %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var emailToKey map[string]string
	if err := json.Unmarshal(data, &emailToKey); err != nil {
		t.Fatalf("written file is not valid JSON: %v", err)
	}
	if len(emailToKey) != 2 {
		t.Errorf("entries = %d, want 2 (blank pairs skipped): %v", len(emailToKey), emailToKey)
	}
	if emailToKey["a@example.com"] != "key-a" {
		t.Errorf("a@example.com = %q", emailToKey["a@example.com"])
	}
}

func TestGenerate_NoUsersIsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"userTableStats": []}`))
	}))
	defer server.Close()

	client := analytics.NewClient("sk-test", analytics.WithBaseURL(server.URL))
	if _, err := Generate(context.Background(), client, t.TempDir(), time.Now()); err == nil {
		t.Fatal("Generate() error = nil, want error for empty user table")
	}
}
