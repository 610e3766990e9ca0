package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParseCookieJSON(t *testing.T) {
	t.Run("plain object form", func(t *testing.T) {
		cookies, err := ParseCookieJSON([]byte(`{"milcubes_session": "abc", "XSRF-TOKEN": "xyz"}`))
		if err != nil {
			t.Fatalf("ParseCookieJSON failed: %v", err)
		}
		if cookies["milcubes_session"] != "abc" || cookies["XSRF-TOKEN"] != "xyz" {
			t.Errorf("unexpected cookies: %v", cookies)
		}
	})

	t.Run("browser extension export form", func(t *testing.T) {
		doc := `[
			{"name": "milcubes_session", "value": "abc", "domain": ".zju.edu.cn", "path": "/", "expirationDate": 1893456000},
			{"name": "XSRF-TOKEN", "value": "xyz"},
			{"name": "", "value": "ignored"}
		]`
		cookies, err := ParseCookieJSON([]byte(doc))
		if err != nil {
			t.Fatalf("ParseCookieJSON failed: %v", err)
		}
		if len(cookies) != 2 {
			t.Errorf("expected 2 cookies, got %d: %v", len(cookies), cookies)
		}
		if cookies["milcubes_session"] != "abc" {
			t.Errorf("unexpected cookies: %v", cookies)
		}
	})

	t.Run("rejects empty documents", func(t *testing.T) {
		for _, doc := range []string{"", "   ", "{}", "[]"} {
			if _, err := ParseCookieJSON([]byte(doc)); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("ParseCookieJSON(%q): expected ErrInvalidInput, got %v", doc, err)
			}
		}
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		if _, err := ParseCookieJSON([]byte(`{"unterminated`)); err == nil {
			t.Error("expected error for malformed JSON")
		}
		if _, err := ParseCookieJSON([]byte(`[{"name": 1}]`)); err == nil {
			t.Error("expected error for wrongly typed export")
		}
	})
}

func TestParseCookieFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cookies.json")
	if err := os.WriteFile(path, []byte(`{"milcubes_session": "abc"}`), 0600); err != nil {
		t.Fatal(err)
	}

	cookies, err := ParseCookieFile(path)
	if err != nil {
		t.Fatalf("ParseCookieFile failed: %v", err)
	}
	if cookies["milcubes_session"] != "abc" {
		t.Errorf("unexpected cookies: %v", cookies)
	}

	if _, err := ParseCookieFile(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
