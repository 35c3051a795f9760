// Package lfg serves the HTTP API of the LFG event managers.
package lfg

import (
	"time"

	"github.com/fireteam-lab/fireteam/internal/eventmgr"
	"github.com/gin-gonic/gin"
)

// Guilds resolves the manager serving a guild.
type Guilds interface {
	Get(guildID string) (*eventmgr.Manager, error)
}

type Service struct {
	guilds           Guilds
	maxBodySizeBytes int
	icsDuration      time.Duration
	nowFn            func() time.Time
}

func NewService(guilds Guilds, maxBodySizeKB int, icsDuration time.Duration) *Service {
	if guilds == nil {
		panic("lfg: guilds must not be nil")
	}
	if maxBodySizeKB <= 0 {
		maxBodySizeKB = 64
	}
	return &Service{
		guilds:           guilds,
		maxBodySizeBytes: maxBodySizeKB * 1024,
		icsDuration:      icsDuration,
		nowFn:            time.Now,
	}
}

// RegisterRoutes registers the LFG routes.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	g := r.Group("/v1/guilds/:guild_id", s.resolveGuild)

	g.GET("/events", s.ListEventsHandler)
	g.GET("/events.ics", s.CalendarHandler)
	g.POST("/events", s.CreateEventHandler)
	g.GET("/events/:event_id", s.GetEventHandler)
	g.PATCH("/events/:event_id", s.EditEventHandler)
	g.DELETE("/events/:event_id", s.DeleteEventHandler)
	g.POST("/events/:event_id/join", s.JoinHandler)
	g.POST("/events/:event_id/leave", s.LeaveHandler)
	g.POST("/events/:event_id/tracked", s.TrackHandler)
	g.POST("/interactions", s.InteractionHandler)
}
