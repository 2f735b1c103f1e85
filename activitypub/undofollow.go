package activitypub

import (
	"database/sql"

	"github.com/deemkeen/linkodon/db"
	"github.com/deemkeen/linkodon/domain"
	"github.com/deemkeen/linkodon/util"
)

// UndoActivity retracts a previously sent Follow. The to field is parsed
// tolerantly for compatibility with platforms that always expect to send a
// recipient field, or fill it with garbage.
type UndoActivity struct {
	ID     string         `json:"id"`
	Type   string         `json:"type"`
	Actor  string         `json:"actor"`
	To     LaxURLs        `json:"to,omitempty"`
	Object FollowActivity `json:"object"`
}

// Verify checks that the Undo is internally consistent: its actor must be
// the actor of the Follow it undoes, and the recipient (when present) must
// be the Follow's target. The inner Follow is re-verified as well.
func (a UndoActivity) Verify(localDomain string) error {
	if err := VerifyURLsMatch(a.Actor, a.Object.Actor); err != nil {
		return err
	}
	if len(a.To) > 0 {
		if err := VerifyURLsMatch(a.To[0], a.Object.Object); err != nil {
			return err
		}
	}
	if err := VerifyIsRemoteObject(a.Actor, localDomain); err != nil {
		return err
	}
	return a.Object.Verify(localDomain)
}

// Receive removes the follow edge. Both parties were already validated
// during Verify. Removing an edge that does not exist is a success, not an
// error.
func (a UndoActivity) Receive(tx *sql.Tx, database *db.DB, resolver *Resolver) error {
	err, follower := resolver.Dereference(tx, a.Actor)
	if err != nil {
		return err
	}

	err, following := resolver.Dereference(tx, a.Object.Object)
	if err != nil {
		return err
	}

	return database.DeleteFollowTx(tx, follower.Id, following.Id)
}

// SendUndoFollow retracts a follow request we sent earlier.
func SendUndoFollow(database *db.DB, conf *util.AppConfig, actor *domain.ApUser, follow FollowActivity, object *domain.ApUser) error {
	undo := UndoActivity{
		ID:     GenerateActivityID(conf.BaseURL()),
		Type:   "Undo",
		Actor:  actor.ApId,
		To:     LaxURLs{follow.Object},
		Object: follow,
	}
	return Send(database, actor, undo, []*domain.ApUser{object})
}
