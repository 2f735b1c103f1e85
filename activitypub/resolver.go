package activitypub

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/deemkeen/linkodon/db"
	"github.com/deemkeen/linkodon/domain"
	"github.com/deemkeen/linkodon/util"
)

const (
	// How long a cached remote actor stays fresh before dereferencing
	// triggers a re-fetch.
	actorCacheMaxAge = 24 * time.Hour

	// Remote fetches are bounded by redirect hops, not by a duration of this
	// layer; wall-clock policy belongs to the HTTP client.
	maxFetchRedirects = 10

	maxActorBodySize = 1 * 1024 * 1024
)

// Resolver turns identifier URLs into local or cached-remote users, fetching
// and upserting on cache miss or staleness.
type Resolver struct {
	database *db.DB
	conf     *util.AppConfig
	client   *http.Client

	// fetchActor, when set, signs outbound GETs with this local user's key
	// for instances that require authorized fetch.
	fetchActor *domain.ApUser
}

func NewResolver(database *db.DB, conf *util.AppConfig) *Resolver {
	client := &http.Client{
		Timeout: 10 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxFetchRedirects {
				return fmt.Errorf("stopped after %d redirects", maxFetchRedirects)
			}
			return nil
		},
	}
	return &Resolver{database: database, conf: conf, client: client}
}

// WithFetchActor returns a resolver that signs its fetches as the given
// local user.
func (r *Resolver) WithFetchActor(actor *domain.ApUser) *Resolver {
	copied := *r
	copied.fetchActor = actor
	return &copied
}

// EnsureInstanceActor returns the service-level local user whose key signs
// outbound fetches, creating it on first use. Instances running authorized
// fetch reject unsigned GETs, so every resolver in the serving path carries
// this actor.
func EnsureInstanceActor(database *db.DB, conf *util.AppConfig) (*domain.ApUser, error) {
	err, actor := database.ReadApUserByUsername(util.Name, conf.Domain())
	if err == nil {
		return actor, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	create, err := domain.NewLocalApUser(conf.BaseURL(), util.Name)
	if err != nil {
		return nil, err
	}
	err, actor = database.CreateApUser(create)
	if err != nil {
		return nil, err
	}
	log.Printf("Resolver: Created instance actor %s", actor.ApId)
	return actor, nil
}

// DereferenceLocal returns the user behind id only if this server is
// authoritative for it. Callers use this when a remote claim must name one
// of our own users.
func (r *Resolver) DereferenceLocal(tx *sql.Tx, id string) (error, *domain.ApUser) {
	parsed, err := url.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid object id %q: %w", id, err), nil
	}
	if parsed.Host != r.conf.Domain() {
		return domain.ErrNotAuthenticated, nil
	}
	return r.database.ReadApUserByApIdTx(tx, id)
}

// Dereference resolves id to a user. Local ids defer to DereferenceLocal.
// Remote ids come from the cache when fresh; otherwise the actor document is
// fetched over the wire, verified and upserted. The fetch runs while the
// caller's transaction is open.
//
// Concurrent callers racing on the same id cannot fail on a constraint
// violation: the upsert is conflict-tolerant by construction.
func (r *Resolver) Dereference(tx *sql.Tx, id string) (error, *domain.ApUser) {
	parsed, err := url.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid object id %q: %w", id, err), nil
	}
	if parsed.Host == r.conf.Domain() {
		return r.DereferenceLocal(tx, id)
	}

	err, cached := r.database.ReadApUserByApIdTx(tx, id)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		// Only a missing row is a cache miss; a broken database must not
		// degrade into a network fetch.
		return err, nil
	}
	if cached != nil && time.Since(cached.LastRefreshedAt) < actorCacheMaxAge {
		return nil, cached
	}

	person, err := r.fetchPerson(id)
	if err != nil {
		return err, nil
	}

	if err := person.Verify(id, r.conf.Domain()); err != nil {
		return err, nil
	}

	create, err := person.ToCreateApUser()
	if err != nil {
		return err, nil
	}

	if err := r.database.UpsertApUserTx(tx, create); err != nil {
		return fmt.Errorf("failed to store remote actor: %w", err), nil
	}

	return r.database.ReadApUserByApIdTx(tx, create.ApId)
}

// fetchPerson issues a signed GET against the actor URI. Network and parse
// failures surface as a retryable FetchError; this layer performs no retry
// itself.
func (r *Resolver) fetchPerson(actorURI string) (*Person, error) {
	req, err := http.NewRequest("GET", actorURI, nil)
	if err != nil {
		return nil, &domain.FetchError{URL: actorURI, Err: err}
	}

	req.Header.Set("Accept", "application/activity+json")
	req.Header.Set("User-Agent", util.GetNameAndVersion())
	req.Header.Set("Date", time.Now().UTC().Format(http.TimeFormat))
	req.Header.Set("Host", req.URL.Host)

	if r.fetchActor != nil && r.fetchActor.PrivateKey != nil {
		privateKey, err := ParsePrivateKey(r.fetchActor.PrivateKey.Reveal())
		if err != nil {
			return nil, fmt.Errorf("failed to parse fetch actor key: %w", err)
		}
		keyId := r.fetchActor.ApId + "#main-key"
		if err := SignGetRequest(req, privateKey, keyId); err != nil {
			return nil, fmt.Errorf("failed to sign fetch: %w", err)
		}
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, &domain.FetchError{URL: actorURI, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &domain.FetchError{URL: actorURI, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxActorBodySize))
	if err != nil {
		return nil, &domain.FetchError{URL: actorURI, Err: err}
	}

	var person Person
	if err := json.Unmarshal(body, &person); err != nil {
		return nil, &domain.FetchError{URL: actorURI, Err: err}
	}

	log.Printf("Resolver: Fetched remote actor %s", actorURI)
	return &person, nil
}
