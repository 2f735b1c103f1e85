package activitypub

import (
	"bytes"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/deemkeen/linkodon/db"
	"github.com/deemkeen/linkodon/util"
)

const (
	deliveryBatchSize   = 50
	maxDeliveryAttempts = 10
)

// Retry delays in minutes, indexed by attempt count. Later attempts reuse
// the last entry.
var retryBackoffMinutes = []int{1, 5, 15, 60, 240, 1440}

// StartDeliveryWorker drains the delivery queue in the background. Failed
// deliveries are retried with increasing delays and dropped after
// maxDeliveryAttempts.
func StartDeliveryWorker() {
	go func() {
		log.Printf("DeliveryWorker: Started")
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()

		for range ticker.C {
			processDeliveryQueue(db.GetDB())
		}
	}()
}

func processDeliveryQueue(database *db.DB) {
	err, items := database.ReadPendingDeliveries(deliveryBatchSize)
	if err != nil {
		log.Printf("DeliveryWorker: Failed to read queue: %v", err)
		return
	}

	for _, item := range *items {
		if err := deliverActivity(database, &item); err != nil {
			log.Printf("DeliveryWorker: Delivery %s to %s failed (attempt %d): %v",
				item.Id, item.InboxURI, item.Attempts+1, err)

			attempts := item.Attempts + 1
			if attempts >= maxDeliveryAttempts {
				log.Printf("DeliveryWorker: Giving up on delivery %s after %d attempts", item.Id, attempts)
				if err := database.DeleteDelivery(item.Id); err != nil {
					log.Printf("DeliveryWorker: Failed to drop delivery %s: %v", item.Id, err)
				}
				continue
			}

			backoff := retryBackoffMinutes[min(attempts-1, len(retryBackoffMinutes)-1)]
			nextRetry := time.Now().Add(time.Duration(backoff) * time.Minute)
			if err := database.UpdateDeliveryAttempt(item.Id, attempts, nextRetry); err != nil {
				log.Printf("DeliveryWorker: Failed to reschedule delivery %s: %v", item.Id, err)
			}
			continue
		}

		if err := database.DeleteDelivery(item.Id); err != nil {
			log.Printf("DeliveryWorker: Failed to remove delivered item %s: %v", item.Id, err)
		}
	}
}

// deliverActivity performs one signed POST to a remote inbox. The sender's
// key is looked up fresh so key rotation between enqueue and delivery is
// picked up.
func deliverActivity(database *db.DB, item *db.DeliveryQueueItem) error {
	err, sender := database.ReadApUserByApId(item.SenderApId)
	if err != nil {
		return fmt.Errorf("sender %s unavailable: %w", item.SenderApId, err)
	}
	if sender.PrivateKey == nil {
		return fmt.Errorf("sender %s has no private key", item.SenderApId)
	}

	privateKey, err := ParsePrivateKey(sender.PrivateKey.Reveal())
	if err != nil {
		return fmt.Errorf("failed to parse sender key: %w", err)
	}

	inboxURL, err := url.Parse(item.InboxURI)
	if err != nil {
		return fmt.Errorf("invalid inbox url %q: %w", item.InboxURI, err)
	}

	body := []byte(item.ActivityJSON)
	req, err := http.NewRequest("POST", item.InboxURI, bytes.NewReader(body))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/activity+json")
	req.Header.Set("Accept", "application/activity+json")
	req.Header.Set("User-Agent", util.GetNameAndVersion())
	req.Header.Set("Date", time.Now().UTC().Format(http.TimeFormat))
	req.Header.Set("Host", inboxURL.Host)
	req.Header.Set("Digest", Digest(body))

	keyId := sender.ApId + "#main-key"
	if err := SignRequest(req, privateKey, keyId); err != nil {
		return fmt.Errorf("failed to sign delivery: %w", err)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("inbox returned status %d", resp.StatusCode)
	}

	log.Printf("DeliveryWorker: Delivered to %s", item.InboxURI)
	return nil
}
