package web

import (
	"encoding/json"

	"github.com/deemkeen/linkodon/activitypub"
	"github.com/deemkeen/linkodon/db"
	"github.com/deemkeen/linkodon/domain"
	"github.com/deemkeen/linkodon/util"
)

type webfingerLink struct {
	Rel  string `json:"rel"`
	Type string `json:"type"`
	Href string `json:"href"`
}

type webfingerResponse struct {
	Subject string          `json:"subject"`
	Links   []webfingerLink `json:"links"`
}

// GetWebfinger answers a discovery query for a local user. The resource
// comes in as acct:name@domain; only our own domain is answered for.
func GetWebfinger(resourceParam string, conf *util.AppConfig) (error, string) {
	resource, err := activitypub.ParseAcctResource(resourceParam, conf.BaseURL())
	if err != nil {
		return err, GetWebFingerNotFound()
	}
	if resource.Domain != conf.Domain() {
		return domain.ErrNotFound, GetWebFingerNotFound()
	}

	err, user := db.GetDB().ReadApUserByUsername(resource.Name, conf.Domain())
	if err != nil {
		return err, GetWebFingerNotFound()
	}

	resp := webfingerResponse{
		Subject: resource.Acct(),
		Links: []webfingerLink{
			{
				Rel:  "self",
				Type: "application/activity+json",
				Href: user.ApId,
			},
		},
	}

	body, err := json.Marshal(resp)
	if err != nil {
		return err, GetWebFingerNotFound()
	}
	return nil, string(body)
}

func GetWebFingerNotFound() string {
	return `{"detail":"Not Found"}`
}
