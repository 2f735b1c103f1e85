package activitypub

import (
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/deemkeen/linkodon/db"
	"github.com/deemkeen/linkodon/domain"
	"github.com/google/uuid"
)

// GenerateActivityID mints a fresh id for an outbound activity.
func GenerateActivityID(base *url.URL) string {
	return base.JoinPath("/ap/activity/", uuid.New().String()).String()
}

// URLList accepts both a single URL string and an array of URL strings,
// which platforms use interchangeably for addressing fields.
type URLList []string

func (l *URLList) UnmarshalJSON(b []byte) error {
	var one string
	if err := json.Unmarshal(b, &one); err == nil {
		*l = URLList{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err == nil {
		*l = URLList(many)
		return nil
	}
	return fmt.Errorf("expected a URL or an array of URLs")
}

// LaxURLs is URLList with skip-on-error semantics, for fields that some
// platforms omit or mis-populate.
type LaxURLs []string

func (l *LaxURLs) UnmarshalJSON(b []byte) error {
	var strict URLList
	if err := strict.UnmarshalJSON(b); err != nil {
		*l = nil
		return nil
	}
	*l = LaxURLs(strict)
	return nil
}

// withContext wraps an activity in the protocol envelope before delivery.
func withContext(activity any) ([]byte, error) {
	raw, err := json.Marshal(activity)
	if err != nil {
		return nil, err
	}
	var wrapped map[string]any
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, err
	}
	wrapped["@context"] = apContext()
	return json.Marshal(wrapped)
}

// Send wraps the activity, resolves each recipient to a delivery address
// (shared inbox preferred, deduplicated) and queues the signed dispatch.
//
// This is fire-and-forget relative to the caller: queue or delivery failures
// never roll back local mutations that already committed. Local state and
// outbound delivery are eventually consistent by design.
func Send(database *db.DB, sender *domain.ApUser, activity any, recipients []*domain.ApUser) error {
	if sender.PrivateKey == nil {
		return fmt.Errorf("sender %s has no private key", sender.ApId)
	}

	activityJSON, err := withContext(activity)
	if err != nil {
		return fmt.Errorf("failed to marshal activity: %w", err)
	}

	inboxes := make(map[string]bool)
	for _, recipient := range recipients {
		if recipient == nil {
			continue
		}
		inboxes[recipient.DeliveryInbox()] = true
	}

	for inbox := range inboxes {
		item := &db.DeliveryQueueItem{
			Id:           uuid.New(),
			InboxURI:     inbox,
			SenderApId:   sender.ApId,
			ActivityJSON: string(activityJSON),
			Attempts:     0,
			NextRetryAt:  time.Now(),
			CreatedAt:    time.Now(),
		}
		if err := database.EnqueueDelivery(item); err != nil {
			log.Printf("Outbox: Failed to queue delivery to %s: %v", inbox, err)
		}
	}

	log.Printf("Outbox: Queued delivery to %d inboxes", len(inboxes))
	return nil
}
