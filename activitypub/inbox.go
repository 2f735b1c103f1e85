package activitypub

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"code.superseriousbusiness.org/httpsig"
	"github.com/deemkeen/linkodon/db"
	"github.com/deemkeen/linkodon/domain"
	"github.com/deemkeen/linkodon/util"
	"github.com/google/uuid"
)

const maxActivityBodySize = 256 * 1024

// activityEnvelope is the minimal shape every inbound activity shares, used
// to pick the concrete handler before full parsing.
type activityEnvelope struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Actor string `json:"actor"`
}

// HandleInbox processes one inbound activity delivery. The flow is strict:
// parse, dedup, authenticate the sender via its HTTP signature, verify the
// activity's claims, then receive it inside a single transaction. Any
// failure before receive leaves no trace in the database.
func HandleInbox(w http.ResponseWriter, r *http.Request, database *db.DB, resolver *Resolver, conf *util.AppConfig) {
	if r.Header.Get("Signature") == "" {
		log.Printf("Inbox: Rejected unsigned delivery from %s", r.RemoteAddr)
		http.Error(w, "signature required", http.StatusUnauthorized)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxActivityBodySize))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	var envelope activityEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		http.Error(w, "invalid activity", http.StatusBadRequest)
		return
	}
	if envelope.ID == "" || envelope.Type == "" || envelope.Actor == "" {
		http.Error(w, "invalid activity", http.StatusBadRequest)
		return
	}

	// Remote servers redeliver on timeouts; an id we already processed is
	// acknowledged without re-processing.
	if err, seen := database.ReadActivityRecordByURI(envelope.ID); err == nil && seen != nil {
		log.Printf("Inbox: Skipping duplicate activity %s", envelope.ID)
		w.WriteHeader(http.StatusAccepted)
		return
	}

	signer, err := authenticateSender(r, database, resolver)
	if err != nil {
		log.Printf("Inbox: Authentication failed for %s activity %s: %v", envelope.Type, envelope.ID, err)
		writeInboxError(w, err)
		return
	}

	// The signing key must belong to the actor the activity claims.
	if err := VerifyURLsMatch(signer.ApId, envelope.Actor); err != nil {
		log.Printf("Inbox: Signer %s does not match actor %s", signer.ApId, envelope.Actor)
		writeInboxError(w, err)
		return
	}

	if err := dispatchActivity(database, resolver, conf, envelope, body); err != nil {
		log.Printf("Inbox: Failed to process %s activity %s: %v", envelope.Type, envelope.ID, err)
		writeInboxError(w, err)
		return
	}

	record := &db.ActivityRecord{
		Id:           uuid.New(),
		ActivityURI:  envelope.ID,
		ActivityType: envelope.Type,
		ActorURI:     envelope.Actor,
		RawJSON:      string(body),
		Local:        false,
		CreatedAt:    time.Now().UTC(),
	}
	if err := database.CreateActivityRecord(record); err != nil {
		log.Printf("Inbox: Failed to record activity %s: %v", envelope.ID, err)
	}

	log.Printf("Inbox: Processed %s activity %s from %s", envelope.Type, envelope.ID, envelope.Actor)
	w.WriteHeader(http.StatusAccepted)
}

// authenticateSender resolves the actor named by the signature's keyId and
// checks the signature against that actor's published key. Resolving may
// fetch the actor; an attacker cannot exploit this because the fetched key
// must still verify the request it arrived with.
func authenticateSender(r *http.Request, database *db.DB, resolver *Resolver) (*domain.ApUser, error) {
	verifier, err := httpsig.NewVerifier(r)
	if err != nil {
		return nil, &domain.VerificationError{Reason: fmt.Sprintf("unparseable signature: %v", err)}
	}

	actorURI := KeyIdToActorURI(verifier.KeyId())

	var signer *domain.ApUser
	err = database.WithTx(func(tx *sql.Tx) error {
		err, s := resolver.Dereference(tx, actorURI)
		signer = s
		return err
	})
	if err != nil {
		return nil, err
	}

	if _, err := VerifyRequest(r, signer.PublicKey); err != nil {
		return nil, &domain.VerificationError{Reason: err.Error()}
	}

	return signer, nil
}

// dispatchActivity parses the body into its concrete activity type, runs its
// verification and receives it inside one transaction. For a Follow the
// Accept reply is queued only after that transaction commits.
func dispatchActivity(database *db.DB, resolver *Resolver, conf *util.AppConfig, envelope activityEnvelope, body []byte) error {
	localDomain := conf.Domain()

	switch envelope.Type {
	case "Follow":
		var follow FollowActivity
		if err := json.Unmarshal(body, &follow); err != nil {
			return &domain.ValidationError{Field: "activity", Reason: err.Error()}
		}
		if err := follow.Verify(localDomain); err != nil {
			return err
		}
		var followed *domain.ApUser
		err := database.WithTx(func(tx *sql.Tx) error {
			_, f, err := follow.Receive(tx, database, resolver)
			followed = f
			return err
		})
		if err != nil {
			return err
		}
		if err := SendAccept(database, resolver, conf, followed, follow); err != nil {
			log.Printf("Inbox: Failed to queue Accept for %s: %v", follow.ID, err)
		}
		return nil

	case "Undo":
		var undo UndoActivity
		if err := json.Unmarshal(body, &undo); err != nil {
			return &domain.ValidationError{Field: "activity", Reason: err.Error()}
		}
		if err := undo.Verify(localDomain); err != nil {
			return err
		}
		return database.WithTx(func(tx *sql.Tx) error {
			return undo.Receive(tx, database, resolver)
		})

	case "Accept":
		var accept AcceptActivity
		if err := json.Unmarshal(body, &accept); err != nil {
			return &domain.ValidationError{Field: "activity", Reason: err.Error()}
		}
		if err := accept.Verify(localDomain); err != nil {
			return err
		}
		return database.WithTx(func(tx *sql.Tx) error {
			return accept.Receive(tx, database, resolver)
		})

	case "Create":
		var create CreateBookmarkActivity
		if err := json.Unmarshal(body, &create); err != nil {
			return &domain.ValidationError{Field: "activity", Reason: err.Error()}
		}
		if err := create.Verify(localDomain); err != nil {
			return err
		}
		return database.WithTx(func(tx *sql.Tx) error {
			return create.Receive(tx, database, resolver)
		})

	default:
		return domain.ErrNotFound
	}
}

// writeInboxError maps processing errors to HTTP statuses without leaking
// internals to the remote server.
func writeInboxError(w http.ResponseWriter, err error) {
	var validation *domain.ValidationError
	var verification *domain.VerificationError
	var fetch *domain.FetchError

	switch {
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrNotAuthenticated), errors.As(err, &verification):
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	case errors.As(err, &validation):
		http.Error(w, "invalid activity", http.StatusBadRequest)
	case errors.As(err, &fetch):
		http.Error(w, "upstream fetch failed", http.StatusBadGateway)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
