package activitypub

import (
	"fmt"
	"time"

	"github.com/deemkeen/linkodon/domain"
	"github.com/google/uuid"
)

// LinkJson is a single attachment carrying the bookmarked URL.
type LinkJson struct {
	Href      string `json:"href"`
	MediaType string `json:"mediaType,omitempty"`
	Type      string `json:"type"`
}

// BookmarkJson is a bookmark on the wire: a Note-like object whose first
// Link attachment carries the URL. Content inlines the url for platforms
// that don't render link attachments.
type BookmarkJson struct {
	ID           string     `json:"id"`
	Type         string     `json:"type"`
	AttributedTo string     `json:"attributedTo"`
	To           URLList    `json:"to,omitempty"`
	Content      string     `json:"content,omitempty"`
	Name         string     `json:"name,omitempty"`
	Attachments  []LinkJson `json:"attachments,omitempty"`
}

const publicAudience = "https://www.w3.org/ns/activitystreams#Public"

// BookmarkJsonFromBookmark renders a bookmark for delivery.
func BookmarkJsonFromBookmark(bookmark *domain.Bookmark, author *domain.ApUser) BookmarkJson {
	return BookmarkJson{
		ID:           bookmark.ApId,
		Type:         "Note",
		AttributedTo: author.ApId,
		To:           URLList{publicAudience},
		Content:      fmt.Sprintf(`<p>%s</p><a href="%s">%s</a>`, bookmark.Title, bookmark.URL, bookmark.URL),
		Name:         bookmark.Title,
		Attachments: []LinkJson{
			{
				Href: bookmark.URL,
				Type: "Link",
			},
		},
	}
}

// Verify checks the structural claims of a received bookmark object.
func (b *BookmarkJson) Verify(expectedOrigin string, localDomain string) error {
	if err := VerifyDomainsMatch(b.ID, expectedOrigin); err != nil {
		return err
	}
	if err := VerifyIsRemoteObject(b.ID, localDomain); err != nil {
		return err
	}
	_, err := b.ToCreateBookmark(uuid.Nil)
	return err
}

// ToCreateBookmark converts the wire shape into an insertable row. The URL
// comes from the first attachment, the title from name.
func (b *BookmarkJson) ToCreateBookmark(owner uuid.UUID) (*domain.CreateBookmark, error) {
	if len(b.Attachments) == 0 || b.Attachments[0].Href == "" {
		return nil, &domain.ValidationError{Field: "attachments", Reason: "missing URL"}
	}
	if b.Name == "" {
		return nil, &domain.ValidationError{Field: "name", Reason: "missing title"}
	}

	create := &domain.CreateBookmark{
		Id:        uuid.New(),
		ApUserId:  owner,
		ApId:      b.ID,
		URL:       b.Attachments[0].Href,
		Title:     b.Name,
		CreatedAt: time.Now().UTC(),
	}

	if err := create.Validate(); err != nil {
		return nil, err
	}

	return create, nil
}
