package activitypub

import (
	"encoding/json"
	"time"

	"github.com/deemkeen/linkodon/domain"
	"github.com/google/uuid"
)

// PersonPublicKey is the publicKey block of an actor document.
type PersonPublicKey struct {
	ID           string `json:"id"`
	Owner        string `json:"owner"`
	PublicKeyPem string `json:"publicKeyPem"`
}

// PersonEndpoints advertises instance-level endpoints, notably the shared
// inbox.
type PersonEndpoints struct {
	SharedInbox string `json:"sharedInbox,omitempty"`
}

// Person is an actor document as we receive it from and send it to other
// instances. It never carries a private key.
type Person struct {
	Context           any              `json:"@context,omitempty"`
	ID                string           `json:"id"`
	Type              string           `json:"type"`
	PreferredUsername string           `json:"preferredUsername"`
	Name              string           `json:"name,omitempty"`
	Summary           string           `json:"summary,omitempty"`
	Inbox             string           `json:"inbox"`
	Outbox            string           `json:"outbox,omitempty"`
	URL               string           `json:"url,omitempty"`
	Endpoints         *PersonEndpoints `json:"endpoints,omitempty"`
	PublicKey         PersonPublicKey  `json:"publicKey"`
}

// PersonFromApUser renders a user's public actor document.
func PersonFromApUser(user *domain.ApUser) Person {
	person := Person{
		ID:                user.ApId,
		Type:              "Person",
		PreferredUsername: user.Username,
		Name:              user.DisplayName,
		Summary:           user.Bio,
		Inbox:             user.InboxURL,
		Outbox:            user.ApId + "/outbox",
		URL:               user.ApId,
		PublicKey: PersonPublicKey{
			ID:           user.ApId + "#main-key",
			Owner:        user.ApId,
			PublicKeyPem: user.PublicKey,
		},
	}
	if user.SharedInboxURL != "" {
		person.Endpoints = &PersonEndpoints{SharedInbox: user.SharedInboxURL}
	}
	return person
}

// Verify checks the structural claims of a fetched actor document before it
// may be cached: its id must be hosted where we actually fetched it from,
// and it must not claim to be one of ours.
func (p *Person) Verify(expectedOrigin string, localDomain string) error {
	if err := VerifyDomainsMatch(p.ID, expectedOrigin); err != nil {
		return err
	}
	if err := VerifyIsRemoteObject(p.ID, localDomain); err != nil {
		return err
	}
	create, err := p.ToCreateApUser()
	if err != nil {
		return err
	}
	return create.Validate()
}

// ToCreateApUser converts a remote actor document into an upsertable row.
// The private key stays empty: only this instance's own users have one.
func (p *Person) ToCreateApUser() (*domain.CreateApUser, error) {
	if p.ID == "" || p.Inbox == "" || p.PublicKey.PublicKeyPem == "" {
		return nil, &domain.ValidationError{Field: "person", Reason: "missing required fields"}
	}

	create := &domain.CreateApUser{
		Id:              uuid.New(),
		ApId:            p.ID,
		Username:        p.PreferredUsername,
		InboxURL:        p.Inbox,
		PublicKey:       p.PublicKey.PublicKeyPem,
		LastRefreshedAt: time.Now().UTC(),
		DisplayName:     p.Name,
		Bio:             p.Summary,
	}
	if p.Endpoints != nil {
		create.SharedInboxURL = p.Endpoints.SharedInbox
	}

	if err := create.Validate(); err != nil {
		return nil, err
	}

	return create, nil
}

// RenderPerson serializes a user's actor document with the protocol
// envelope, ready to be served.
func RenderPerson(user *domain.ApUser) ([]byte, error) {
	person := PersonFromApUser(user)
	person.Context = apContext()
	return json.Marshal(person)
}

// RenderBookmark serializes a bookmark object with the protocol envelope.
func RenderBookmark(bookmark *domain.Bookmark, author *domain.ApUser) ([]byte, error) {
	return withContext(BookmarkJsonFromBookmark(bookmark, author))
}

// apContext is the JSON-LD context sent with every outbound document.
func apContext() []string {
	return []string{
		"https://www.w3.org/ns/activitystreams",
		"https://w3id.org/security/v1",
	}
}
