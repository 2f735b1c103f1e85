package domain

import (
	"errors"
	"net/url"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Bookmark is the federation-relevant subset of a saved link. On the wire it
// travels as a Note-like object with a single Link attachment carrying URL.
type Bookmark struct {
	Id        uuid.UUID
	ApUserId  uuid.UUID
	ApId      string
	URL       string
	Title     string
	CreatedAt time.Time
}

// CreateBookmark carries the fields for inserting a bookmark row.
type CreateBookmark struct {
	Id        uuid.UUID
	ApUserId  uuid.UUID
	ApId      string `validate:"required,max=2048"`
	URL       string `validate:"required,max=2048"`
	Title     string `validate:"required,max=255"`
	CreatedAt time.Time
}

func (c *CreateBookmark) Validate() error {
	if err := apUserValidate.Struct(c); err != nil {
		var invalid validator.ValidationErrors
		if errors.As(err, &invalid) && len(invalid) > 0 {
			return &ValidationError{Field: invalid[0].Field(), Reason: invalid[0].Tag()}
		}
		return &ValidationError{Field: "bookmark", Reason: err.Error()}
	}
	return nil
}

// NewLocalBookmark mints a bookmark owned by a local user, with the canonical
// local ap_id.
func NewLocalBookmark(baseURL *url.URL, owner uuid.UUID, bookmarkURL, title string) (*CreateBookmark, error) {
	id := uuid.New()
	create := &CreateBookmark{
		Id:        id,
		ApUserId:  owner,
		ApId:      baseURL.JoinPath("/ap/bookmark/", id.String()).String(),
		URL:       bookmarkURL,
		Title:     title,
		CreatedAt: time.Now().UTC(),
	}

	if err := create.Validate(); err != nil {
		return nil, err
	}

	return create, nil
}
