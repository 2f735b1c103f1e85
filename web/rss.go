package web

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/deemkeen/linkodon/db"
	"github.com/deemkeen/linkodon/util"
	"github.com/google/uuid"
	"github.com/gorilla/feeds"
)

// GetRSS renders a user's bookmarks as an RSS feed. The username is required
// since bookmarks only federate per user.
func GetRSS(conf *util.AppConfig, username string) (string, error) {
	if username == "" {
		return "", errors.New("username required")
	}

	database := db.GetDB()
	err, user := database.ReadApUserByUsername(username, conf.Domain())
	if err != nil {
		log.Printf("Could not find user %s: %v", username, err)
		return "", errors.New("error retrieving user")
	}

	err, bookmarks := database.ReadBookmarksByUserId(user.Id)
	if err != nil {
		log.Printf("Could not get bookmarks from %s: %v", username, err)
		return "", errors.New("error retrieving bookmarks")
	}

	link := fmt.Sprintf("https://%s/feed?username=%s", conf.Domain(), username)
	email := fmt.Sprintf("%s@%s", username, util.Name)

	feed := &feeds.Feed{
		Title:       fmt.Sprintf("Linkodon Bookmarks - %s", username),
		Link:        &feeds.Link{Href: link},
		Description: "bookmark feed",
		Author:      &feeds.Author{Name: username, Email: email},
		Created:     time.Now(),
	}

	var feedItems []*feeds.Item
	for _, bookmark := range *bookmarks {
		feedItems = append(feedItems,
			&feeds.Item{
				Id:      bookmark.Id.String(),
				Title:   util.NormalizeInput(bookmark.Title),
				Link:    &feeds.Link{Href: bookmark.URL},
				Content: bookmark.URL,
				Author:  &feeds.Author{Name: username, Email: email},
				Created: bookmark.CreatedAt,
			})
	}

	feed.Items = feedItems
	return feed.ToRss()
}

// GetRSSItem renders a single bookmark as a one-item feed.
func GetRSSItem(conf *util.AppConfig, id uuid.UUID) (string, error) {
	database := db.GetDB()
	err, bookmark := database.ReadBookmarkById(id)
	if err != nil || bookmark == nil {
		log.Println("Could not get bookmark!", err)
		return "", errors.New("error retrieving bookmark by id")
	}

	err, author := database.ReadApUserById(bookmark.ApUserId)
	if err != nil {
		return "", errors.New("error retrieving bookmark author")
	}

	email := fmt.Sprintf("%s@%s", author.Username, util.Name)
	url := fmt.Sprintf("https://%s/feed/%s", conf.Domain(), bookmark.Id)

	feed := &feeds.Feed{
		Title:       "Single Linkodon Bookmark",
		Link:        &feeds.Link{Href: url},
		Description: "bookmark feed",
		Author:      &feeds.Author{Name: author.Username, Email: email},
		Created:     time.Now(),
	}

	feed.Items = []*feeds.Item{
		{
			Id:      bookmark.Id.String(),
			Title:   util.NormalizeInput(bookmark.Title),
			Link:    &feeds.Link{Href: bookmark.URL},
			Content: bookmark.URL,
			Author:  &feeds.Author{Name: author.Username, Email: email},
			Created: bookmark.CreatedAt,
		},
	}

	return feed.ToRss()
}
