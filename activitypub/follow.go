package activitypub

import (
	"database/sql"

	"github.com/deemkeen/linkodon/db"
	"github.com/deemkeen/linkodon/domain"
	"github.com/deemkeen/linkodon/util"
)

// FollowActivity asks the target actor to add the sender to its followers.
type FollowActivity struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Actor  string `json:"actor"`
	Object string `json:"object"`
}

// NewFollow builds a follow request from actor towards object.
func NewFollow(actor, object *domain.ApUser, conf *util.AppConfig) FollowActivity {
	return FollowActivity{
		ID:     GenerateActivityID(conf.BaseURL()),
		Type:   "Follow",
		Actor:  actor.ApId,
		Object: object.ApId,
	}
}

// Verify runs the structural checks on an inbound Follow. No mutation
// happens here; Receive is never called when Verify fails.
func (a FollowActivity) Verify(localDomain string) error {
	if err := VerifyIsRemoteObject(a.Actor, localDomain); err != nil {
		return err
	}
	// The activity id must be hosted by the actor that claims it.
	if err := VerifyDomainsMatch(a.Actor, a.ID); err != nil {
		return err
	}
	return nil
}

// Receive dereferences both parties and asserts the follow edge. A repeat
// Follow from the same pair produces no new row. Both users are returned so
// the caller can reply with an Accept after the transaction commits.
func (a FollowActivity) Receive(tx *sql.Tx, database *db.DB, resolver *Resolver) (*domain.ApUser, *domain.ApUser, error) {
	err, follower := resolver.Dereference(tx, a.Actor)
	if err != nil {
		return nil, nil, err
	}

	err, followed := resolver.DereferenceLocal(tx, a.Object)
	if err != nil {
		return nil, nil, err
	}

	if err := database.UpsertFollowTx(tx, follower.Id, followed.Id); err != nil {
		return nil, nil, err
	}

	return follower, followed, nil
}

// SendFollow builds a follow request and queues it for delivery to the
// target's inbox. The edge becomes real for us once the remote side follows
// back with its own activities; we do not track a pending state.
func SendFollow(database *db.DB, conf *util.AppConfig, actor, object *domain.ApUser) (FollowActivity, error) {
	follow := NewFollow(actor, object, conf)
	if err := Send(database, actor, follow, []*domain.ApUser{object}); err != nil {
		return follow, err
	}
	return follow, nil
}
