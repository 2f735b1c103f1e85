package domain

import (
	"time"

	"github.com/google/uuid"
)

// Follow is an edge in the social graph. At most one row exists per ordered
// (follower, following) pair; re-asserting an existing edge is a no-op.
type Follow struct {
	Id          uuid.UUID
	FollowerId  uuid.UUID
	FollowingId uuid.UUID
	CreatedAt   time.Time
}
