package domain

import (
	"errors"
	"net/url"
	"regexp"
	"time"

	"github.com/deemkeen/linkodon/util"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// SecretString holds a private key PEM. It never leaks through logging or
// serialization; the raw value is only reachable via Reveal, which the
// request signer is the sole caller of.
type SecretString struct {
	value string
}

func NewSecretString(value string) *SecretString {
	return &SecretString{value: value}
}

func (s *SecretString) Reveal() string {
	return s.value
}

func (s *SecretString) String() string {
	return "[REDACTED]"
}

func (s *SecretString) GoString() string {
	return "[REDACTED]"
}

func (s *SecretString) MarshalJSON() ([]byte, error) {
	return []byte(`"[REDACTED]"`), nil
}

// ApUser is a federation identity, local or remote, in one table.
//
// For local users ApId has the fixed form {base_url}/ap/user/{id}; for remote
// users it is an arbitrary URL. A user is local exactly when PrivateKey is
// present and the ApId host equals the configured instance domain.
type ApUser struct {
	Id              uuid.UUID
	ApId            string
	Username        string
	InboxURL        string
	SharedInboxURL  string
	PublicKey       string
	PrivateKey      *SecretString
	LastRefreshedAt time.Time
	DisplayName     string
	Bio             string
}

// IsLocal reports whether this user is under our authority.
func (u *ApUser) IsLocal(localDomain string) bool {
	if u.PrivateKey == nil {
		return false
	}
	parsed, err := url.Parse(u.ApId)
	if err != nil {
		return false
	}
	return parsed.Host == localDomain
}

// DeliveryInbox returns the shared inbox when the actor advertises one,
// otherwise the personal inbox.
func (u *ApUser) DeliveryInbox() string {
	if u.SharedInboxURL != "" {
		return u.SharedInboxURL
	}
	return u.InboxURL
}

// CreateApUser carries the fields for inserting or upserting an ap_users row.
type CreateApUser struct {
	Id              uuid.UUID
	ApId            string `validate:"required,max=255"`
	Username        string `validate:"required,max=50"`
	InboxURL        string `validate:"required,max=255"`
	SharedInboxURL  string `validate:"max=255"`
	PublicKey       string `validate:"required,max=10000"`
	PrivateKey      string `validate:"max=10000"`
	LastRefreshedAt time.Time
	DisplayName     string `validate:"max=100"`
	Bio             string `validate:"max=5000"`
}

var (
	apUserValidate = validator.New()
	usernameRe     = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
)

func (c *CreateApUser) Validate() error {
	if err := apUserValidate.Struct(c); err != nil {
		var invalid validator.ValidationErrors
		if errors.As(err, &invalid) && len(invalid) > 0 {
			return &ValidationError{Field: invalid[0].Field(), Reason: invalid[0].Tag()}
		}
		return &ValidationError{Field: "ap_user", Reason: err.Error()}
	}
	return nil
}

// NewLocalApUser mints a local user with a fresh keypair and the canonical
// local ap_id. Created once at account creation; local users are never
// re-fetched.
func NewLocalApUser(baseURL *url.URL, username string) (*CreateApUser, error) {
	if !usernameRe.MatchString(username) {
		return nil, &ValidationError{Field: "username", Reason: "must contain only letters, digits and underscores"}
	}

	id := uuid.New()
	apId := baseURL.JoinPath("/ap/user/", id.String())
	inboxURL := baseURL.JoinPath("/ap/inbox/", id.String())
	sharedInboxURL := baseURL.JoinPath("/ap/inbox")

	keypair := util.GeneratePemKeypair()
	create := &CreateApUser{
		Id:              id,
		ApId:            apId.String(),
		Username:        username,
		InboxURL:        inboxURL.String(),
		SharedInboxURL:  sharedInboxURL.String(),
		PublicKey:       keypair.Public,
		PrivateKey:      keypair.Private,
		LastRefreshedAt: time.Now().UTC(),
	}

	if err := create.Validate(); err != nil {
		return nil, err
	}

	return create, nil
}
