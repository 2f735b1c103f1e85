package web

import (
	"github.com/deemkeen/linkodon/activitypub"
	"github.com/deemkeen/linkodon/db"
	"github.com/deemkeen/linkodon/domain"
	"github.com/deemkeen/linkodon/util"
	"github.com/google/uuid"
)

// GetActorDocument serves a local user's public actor document. Remote users
// cached in the same table are never served; their home instance is
// authoritative for them.
func GetActorDocument(idStr string, conf *util.AppConfig) (error, string) {
	userId, err := uuid.Parse(idStr)
	if err != nil {
		return err, "{}"
	}

	err, user := db.GetDB().ReadApUserById(userId)
	if err != nil {
		return err, "{}"
	}
	if !user.IsLocal(conf.Domain()) {
		return domain.ErrNotFound, "{}"
	}

	doc, err := activitypub.RenderPerson(user)
	if err != nil {
		return err, "{}"
	}
	return nil, string(doc)
}

// GetBookmarkObject serves a local bookmark as a federation object.
func GetBookmarkObject(idStr string, conf *util.AppConfig) (error, string) {
	bookmarkId, err := uuid.Parse(idStr)
	if err != nil {
		return err, "{}"
	}

	database := db.GetDB()
	err, bookmark := database.ReadBookmarkById(bookmarkId)
	if err != nil {
		return err, "{}"
	}

	err, author := database.ReadApUserById(bookmark.ApUserId)
	if err != nil {
		return err, "{}"
	}
	if !author.IsLocal(conf.Domain()) {
		return domain.ErrNotFound, "{}"
	}

	doc, err := activitypub.RenderBookmark(bookmark, author)
	if err != nil {
		return err, "{}"
	}
	return nil, string(doc)
}
