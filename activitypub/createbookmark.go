package activitypub

import (
	"database/sql"

	"github.com/deemkeen/linkodon/db"
	"github.com/deemkeen/linkodon/domain"
	"github.com/deemkeen/linkodon/util"
)

// CreateBookmarkActivity announces a new bookmark to its author's followers.
type CreateBookmarkActivity struct {
	ID     string       `json:"id"`
	Type   string       `json:"type"`
	Actor  string       `json:"actor"`
	To     URLList      `json:"to"`
	Object BookmarkJson `json:"object"`
}

// Verify checks that the actor is remote and actually owns the embedded
// bookmark, then verifies the bookmark object itself.
func (a CreateBookmarkActivity) Verify(localDomain string) error {
	if err := VerifyIsRemoteObject(a.Actor, localDomain); err != nil {
		return err
	}
	if err := VerifyDomainsMatch(a.Actor, a.Object.ID); err != nil {
		return err
	}
	return a.Object.Verify(a.Actor, localDomain)
}

// Receive rejects inbound bookmark creation; only the announcement leg is
// supported in this version.
func (a CreateBookmarkActivity) Receive(tx *sql.Tx, database *db.DB, resolver *Resolver) error {
	return domain.ErrNotFound
}

// SendBookmarkToFollowers converts the bookmark to its wire shape, addresses
// every current follower of the author and queues the broadcast. Followers
// on the same instance collapse onto their shared inbox.
func SendBookmarkToFollowers(database *db.DB, conf *util.AppConfig, actor *domain.ApUser, bookmark *domain.Bookmark) error {
	object := BookmarkJsonFromBookmark(bookmark, actor)

	// The follower set is snapshotted in one transaction so a concurrent
	// follow cannot yield a half-addressed broadcast.
	var followers *[]domain.ApUser
	err := database.WithTx(func(tx *sql.Tx) error {
		err, f := database.ListFollowersTx(tx, actor.Id)
		followers = f
		return err
	})
	if err != nil {
		return err
	}

	to := make(URLList, 0, len(*followers))
	recipients := make([]*domain.ApUser, 0, len(*followers))
	for i := range *followers {
		follower := &(*followers)[i]
		to = append(to, follower.ApId)
		recipients = append(recipients, follower)
	}

	create := CreateBookmarkActivity{
		ID:     GenerateActivityID(conf.BaseURL()),
		Type:   "Create",
		Actor:  actor.ApId,
		To:     to,
		Object: object,
	}

	return Send(database, actor, create, recipients)
}
