package activitypub

import (
	"encoding/json"
	"net/url"
	"strings"
	"testing"
)

func TestURLListUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr bool
	}{
		{"single string", `"https://a.example/1"`, []string{"https://a.example/1"}, false},
		{"array", `["https://a.example/1","https://a.example/2"]`, []string{"https://a.example/1", "https://a.example/2"}, false},
		{"empty array", `[]`, []string{}, false},
		{"number", `42`, nil, true},
		{"object", `{"id":"x"}`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var list URLList
			err := json.Unmarshal([]byte(tt.input), &list)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error for input %s", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}
			if len(list) != len(tt.want) {
				t.Fatalf("Expected %d entries, got %d", len(tt.want), len(list))
			}
			for i, want := range tt.want {
				if list[i] != want {
					t.Errorf("Entry %d: expected %s, got %s", i, want, list[i])
				}
			}
		})
	}
}

func TestLaxURLsSwallowErrors(t *testing.T) {
	var lax LaxURLs
	if err := json.Unmarshal([]byte(`{"junk":true}`), &lax); err != nil {
		t.Fatalf("Lax parsing should never error: %v", err)
	}
	if len(lax) != 0 {
		t.Errorf("Expected no entries from junk input, got %d", len(lax))
	}

	if err := json.Unmarshal([]byte(`"https://a.example/1"`), &lax); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if len(lax) != 1 || lax[0] != "https://a.example/1" {
		t.Errorf("Expected one entry, got %v", lax)
	}
}

func TestGenerateActivityID(t *testing.T) {
	base, _ := url.Parse("https://local.test")

	first := GenerateActivityID(base)
	second := GenerateActivityID(base)

	if !strings.HasPrefix(first, "https://local.test/ap/activity/") {
		t.Errorf("Unexpected activity id %s", first)
	}
	if first == second {
		t.Error("Activity ids must be unique")
	}
}

func TestWithContextEnvelope(t *testing.T) {
	follow := FollowActivity{
		ID:     "https://local.test/ap/activity/1",
		Type:   "Follow",
		Actor:  "https://local.test/ap/user/1",
		Object: "https://b.example/ap/user/bob",
	}

	raw, err := withContext(follow)
	if err != nil {
		t.Fatalf("withContext failed: %v", err)
	}

	var wrapped map[string]any
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		t.Fatalf("Envelope is not valid JSON: %v", err)
	}

	context, ok := wrapped["@context"].([]any)
	if !ok {
		t.Fatalf("Expected @context array, got %T", wrapped["@context"])
	}
	if len(context) != 2 {
		t.Errorf("Expected 2 context entries, got %d", len(context))
	}
	if wrapped["type"] != "Follow" {
		t.Errorf("Envelope should keep the activity fields, got type %v", wrapped["type"])
	}
}
