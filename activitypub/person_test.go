package activitypub

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/deemkeen/linkodon/domain"
	"github.com/deemkeen/linkodon/util"
)

func personFixture(apId string) Person {
	return Person{
		ID:                apId,
		Type:              "Person",
		PreferredUsername: "bob",
		Inbox:             apId + "/inbox",
		PublicKey: PersonPublicKey{
			ID:           apId + "#main-key",
			Owner:        apId,
			PublicKeyPem: "-----BEGIN PUBLIC KEY-----\nfixture\n-----END PUBLIC KEY-----",
		},
	}
}

func TestPersonVerify(t *testing.T) {
	apId := "https://b.example/ap/user/bob"

	tests := []struct {
		name        string
		mutate      func(*Person)
		localDomain string
		wantErr     bool
	}{
		{"valid", func(p *Person) {}, "local.test", false},
		{"id from another host", func(p *Person) { p.ID = "https://evil.example/ap/user/bob" }, "local.test", true},
		{"claims to be local", func(p *Person) {}, "b.example", true},
		{"missing inbox", func(p *Person) { p.Inbox = "" }, "local.test", true},
		{"missing key", func(p *Person) { p.PublicKey.PublicKeyPem = "" }, "local.test", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := personFixture(apId)
			tt.mutate(&p)

			err := p.Verify(apId, tt.localDomain)
			if tt.wantErr && err == nil {
				t.Error("Expected verification to fail")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Expected verification to pass, got %v", err)
			}
		})
	}
}

func TestPersonToCreateApUser(t *testing.T) {
	p := personFixture("https://b.example/ap/user/bob")
	p.Name = "Bob"
	p.Summary = "a remote user"
	p.Endpoints = &PersonEndpoints{SharedInbox: "https://b.example/ap/inbox"}

	create, err := p.ToCreateApUser()
	if err != nil {
		t.Fatalf("ToCreateApUser failed: %v", err)
	}
	if create.ApId != p.ID {
		t.Errorf("Expected ap_id %s, got %s", p.ID, create.ApId)
	}
	if create.SharedInboxURL != "https://b.example/ap/inbox" {
		t.Errorf("Shared inbox should be carried over, got %s", create.SharedInboxURL)
	}
	if create.PrivateKey != "" {
		t.Error("Remote actors must never get a private key")
	}
}

func TestRenderPersonNeverLeaksPrivateKey(t *testing.T) {
	conf := &util.AppConfig{}
	conf.Conf.SslDomain = "local.test"

	create, err := domain.NewLocalApUser(conf.BaseURL(), "alice")
	if err != nil {
		t.Fatal(err)
	}
	user := &domain.ApUser{
		Id:         create.Id,
		ApId:       create.ApId,
		Username:   create.Username,
		InboxURL:   create.InboxURL,
		PublicKey:  create.PublicKey,
		PrivateKey: domain.NewSecretString(create.PrivateKey),
	}

	doc, err := RenderPerson(user)
	if err != nil {
		t.Fatalf("RenderPerson failed: %v", err)
	}

	rendered := string(doc)
	if strings.Contains(rendered, "PRIVATE KEY") {
		t.Fatal("Actor document leaked the private key")
	}
	if !strings.Contains(rendered, "@context") {
		t.Error("Actor document should carry the protocol envelope")
	}

	var person Person
	if err := json.Unmarshal(doc, &person); err != nil {
		t.Fatalf("Rendered document should parse back: %v", err)
	}
	if person.PublicKey.ID != user.ApId+"#main-key" {
		t.Errorf("Unexpected key id %s", person.PublicKey.ID)
	}
	if person.PreferredUsername != "alice" {
		t.Errorf("Expected preferredUsername alice, got %s", person.PreferredUsername)
	}
}
