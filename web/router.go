package web

import (
	"fmt"
	"log"

	"github.com/deemkeen/linkodon/activitypub"
	"github.com/deemkeen/linkodon/db"
	"github.com/deemkeen/linkodon/util"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

func Router(conf *util.AppConfig) error {
	log.Printf("Starting federation server on %s:%d", conf.Conf.Host, conf.Conf.HttpPort)
	g := gin.Default()
	g.Use(gzip.Gzip(gzip.DefaultCompression))

	webRate, webBurst := conf.WebLimits()
	globalLimiter := NewRateLimiter(rate.Limit(webRate), webBurst)
	g.Use(RateLimitMiddleware(globalLimiter))

	// RSS Feed
	g.GET("/feed", func(c *gin.Context) {
		c.Header("Content-Type", "application/xml; charset=utf-8")

		username := c.Query("username")
		rss, err := GetRSS(conf, username)
		if err != nil {
			c.Render(404, render.String{Format: ""})
		} else {
			c.Render(200, render.String{Format: rss})
		}
	})

	g.GET("/feed/:id", func(c *gin.Context) {
		c.Header("Content-Type", "application/xml; charset=utf-8")
		feedId, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.Render(404, render.String{Format: ""})
			return
		}

		rssItem, err := GetRSSItem(conf, feedId)
		if err != nil {
			c.Render(404, render.String{Format: ""})
		} else {
			c.Render(200, render.String{Format: rssItem})
		}
	})

	if conf.Conf.WithAp {
		database := db.GetDB()
		resolver := activitypub.NewResolver(database, conf)

		// Actor fetches go out signed so instances running authorized fetch
		// answer them.
		fetchActor, err := activitypub.EnsureInstanceActor(database, conf)
		if err != nil {
			return fmt.Errorf("failed to provision instance actor: %w", err)
		}
		resolver = resolver.WithFetchActor(fetchActor)

		// Federation endpoints get their own, stricter budget: remote
		// servers redeliver in bursts.
		apRate, apBurst := conf.ApLimits()
		apLimiter := NewRateLimiter(rate.Limit(apRate), apBurst)

		// Max 1MB request body size for inbound activities
		maxBodySize := MaxBytesMiddleware(1 * 1024 * 1024)

		g.GET("/ap/user/:id", func(c *gin.Context) {
			c.Header("Content-Type", "application/activity+json; charset=utf-8")
			err, actor := GetActorDocument(c.Param("id"), conf)
			if err != nil {
				c.Render(404, render.String{Format: actor})
			} else {
				c.Render(200, render.String{Format: actor})
			}
		})

		g.GET("/ap/bookmark/:id", func(c *gin.Context) {
			c.Header("Content-Type", "application/activity+json; charset=utf-8")
			err, bookmark := GetBookmarkObject(c.Param("id"), conf)
			if err != nil {
				c.Render(404, render.String{Format: bookmark})
			} else {
				c.Render(200, render.String{Format: bookmark})
			}
		})

		// The shared inbox and per-user inboxes run the same pipeline: the
		// activity itself names its target, so the path id is routing sugar.
		inboxHandler := func(c *gin.Context) {
			activitypub.HandleInbox(c.Writer, c.Request, database, resolver, conf)
		}
		g.POST("/ap/inbox", RateLimitMiddleware(apLimiter), maxBodySize, inboxHandler)
		g.POST("/ap/inbox/:id", RateLimitMiddleware(apLimiter), maxBodySize, inboxHandler)

		g.GET("/.well-known/webfinger", func(c *gin.Context) {
			c.Header("Content-Type", "application/json; charset=utf-8")

			resource := c.Query("resource")
			if resource == "" {
				c.Render(404, render.String{Format: GetWebFingerNotFound()})
				return
			}
			err, resp := GetWebfinger(resource, conf)
			if err != nil {
				c.Render(404, render.String{Format: GetWebFingerNotFound()})
			} else {
				c.Render(200, render.String{Format: resp})
			}
		})
	}

	err := g.Run(fmt.Sprintf(":%d", conf.Conf.HttpPort))
	if err != nil {
		return err
	}
	return nil
}
