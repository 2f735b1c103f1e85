package activitypub

import (
	"database/sql"

	"github.com/deemkeen/linkodon/db"
	"github.com/deemkeen/linkodon/domain"
	"github.com/deemkeen/linkodon/util"
)

// AcceptActivity confirms a Follow. We only ever send these; the follow edge
// is established by receiving the Follow itself, not by the remote accept.
type AcceptActivity struct {
	ID     string         `json:"id"`
	Type   string         `json:"type"`
	Actor  string         `json:"actor"`
	Object FollowActivity `json:"object"`
}

// SendAccept dereferences the follower and queues an Accept for the Follow
// it received. Called on every Follow receipt, including repeats: a repeat
// Follow re-affirms the relationship rather than being distinguished from a
// new one.
func SendAccept(database *db.DB, resolver *Resolver, conf *util.AppConfig, actor *domain.ApUser, follow FollowActivity) error {
	var follower *domain.ApUser
	err := database.WithTx(func(tx *sql.Tx) error {
		err, f := resolver.Dereference(tx, follow.Actor)
		follower = f
		return err
	})
	if err != nil {
		return err
	}

	accept := AcceptActivity{
		ID:     GenerateActivityID(conf.BaseURL()),
		Type:   "Accept",
		Actor:  actor.ApId,
		Object: follow,
	}

	return Send(database, actor, accept, []*domain.ApUser{follower})
}

func (a AcceptActivity) Verify(localDomain string) error {
	return nil
}

// Receive rejects inbound Accepts: edges are asserted by local receipt of
// Follow, so there is nothing to action here.
func (a AcceptActivity) Receive(tx *sql.Tx, database *db.DB, resolver *Resolver) error {
	return domain.ErrNotFound
}
