package domain

import (
	"strings"
	"testing"
)

func TestNewLocalBookmark(t *testing.T) {
	base := mustParse(t, "https://local.test")
	user, err := NewLocalApUser(base, "alice")
	if err != nil {
		t.Fatal(err)
	}

	create, err := NewLocalBookmark(base, user.Id, "https://go.dev", "The Go Programming Language")
	if err != nil {
		t.Fatalf("NewLocalBookmark failed: %v", err)
	}

	if !strings.HasPrefix(create.ApId, "https://local.test/ap/bookmark/") {
		t.Errorf("Unexpected bookmark ap_id %s", create.ApId)
	}
	if !strings.HasSuffix(create.ApId, create.Id.String()) {
		t.Errorf("Bookmark ap_id should end in its id: %s", create.ApId)
	}
}

func TestNewLocalBookmarkValidation(t *testing.T) {
	base := mustParse(t, "https://local.test")
	user, err := NewLocalApUser(base, "alice")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		url   string
		title string
	}{
		{"missing url", "", "title"},
		{"missing title", "https://go.dev", ""},
		{"oversized title", "https://go.dev", strings.Repeat("x", 256)},
		{"oversized url", "https://go.dev/" + strings.Repeat("x", 2100), "title"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewLocalBookmark(base, user.Id, tt.url, tt.title); err == nil {
				t.Error("Expected validation to fail")
			}
		})
	}
}
