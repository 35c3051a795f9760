package lfg

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/fireteam-lab/fireteam/internal/activity"
	v1 "github.com/fireteam-lab/fireteam/internal/api/v1"
	httperr "github.com/fireteam-lab/fireteam/internal/core/errors"
	"github.com/fireteam-lab/fireteam/internal/event"
	"github.com/fireteam-lab/fireteam/internal/eventmgr"
	"github.com/fireteam-lab/fireteam/internal/eventstore"
	"github.com/fireteam-lab/fireteam/internal/ical"
	"github.com/fireteam-lab/fireteam/internal/views"
	"github.com/gin-gonic/gin"
)

const (
	msgReadBodyFailed = "Failed to read request body"
	msgInvalidJSON    = "Invalid JSON body"
	msgBodyTooLarge   = "Request body exceeds maximum allowed size"

	managerKey = "manager"
)

// apiError carries the HTTP error shape from a helper back to the handler.
type apiError struct {
	statusCode int
	errorType  string
	message    string
	details    interface{}
}

func (e *apiError) Error() string {
	return e.message
}

func badRequest(err error) *apiError {
	return &apiError{statusCode: http.StatusBadRequest, errorType: httperr.HttpInvalidRequestError, message: err.Error()}
}

// domainError classifies err. When the mutation committed but could not be
// saved, the committed event is attached as details.
func domainError(err error, committed *event.Event) *apiError {
	status, errorType := httperr.Classify(err)
	apiErr := &apiError{statusCode: status, errorType: errorType, message: err.Error()}
	if errors.Is(err, eventstore.ErrPersistence) && committed != nil {
		resp := v1.NewEventResponse(committed)
		apiErr.details = map[string]interface{}{"event": resp}
	}
	if status >= http.StatusInternalServerError {
		slog.Error("[LFG] Request failed", "error", err)
	}
	return apiErr
}

// resolveGuild loads the guild's manager for the route group.
func (s *Service) resolveGuild(c *gin.Context) {
	m, err := s.guilds.Get(c.Param("guild_id"))
	if err != nil {
		writeError(c, domainError(err, nil))
		c.Abort()
		return
	}
	c.Set(managerKey, m)
	c.Next()
}

func manager(c *gin.Context) *eventmgr.Manager {
	return c.MustGet(managerKey).(*eventmgr.Manager)
}

func eventID(c *gin.Context) (event.ID, *apiError) {
	id, err := event.ParseID(c.Param("event_id"))
	if err != nil {
		return event.ID{}, badRequest(err)
	}
	return id, nil
}

// ListEventsHandler lists events in time order, optionally filtered by
// ?type=raid&type=dungeon.
func (s *Service) ListEventsHandler(c *gin.Context) {
	var filter activity.Filter
	for _, name := range c.QueryArray("type") {
		t, err := activity.ParseType(name)
		if err != nil {
			writeError(c, badRequest(err))
			return
		}
		filter = append(filter, t)
	}

	events := manager(c).List(filter)
	resp := make([]v1.EventResponse, 0, len(events))
	for _, e := range events {
		resp = append(resp, v1.NewEventResponse(e))
	}
	c.JSON(http.StatusOK, gin.H{"events": resp})
}

func (s *Service) GetEventHandler(c *gin.Context) {
	id, apiErr := eventID(c)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	e, err := manager(c).Get(id)
	if err != nil {
		writeError(c, domainError(err, nil))
		return
	}
	c.JSON(http.StatusOK, v1.NewEventResponse(e))
}

// CalendarHandler serves the guild's events as text/calendar.
func (s *Service) CalendarHandler(c *gin.Context) {
	m := manager(c)
	feed := ical.Feed{GuildID: m.GuildID(), Duration: s.icsDuration}
	body := feed.Serialize(m.List(nil), s.nowFn())
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(body))
}

func (s *Service) CreateEventHandler(c *gin.Context) {
	var req v1.CreateEventRequest
	if apiErr := s.bindJSON(c, &req); apiErr != nil {
		writeError(c, apiErr)
		return
	}
	kind, err := req.Validate()
	if err != nil {
		writeError(c, badRequest(err))
		return
	}

	e, err := manager(c).CreateEvent(c.Request.Context(), eventmgr.CreateRequest{
		Creator:       req.Creator.Domain(),
		Activity:      kind,
		ScheduledTime: req.ScheduledTime,
		Description:   req.Description,
		GroupSize:     req.GroupSize,
		Recurring:     req.Recurring,
	})
	if err != nil {
		writeError(c, domainError(err, e))
		return
	}
	c.JSON(http.StatusCreated, v1.NewEventResponse(e))
}

func (s *Service) JoinHandler(c *gin.Context) {
	id, apiErr := eventID(c)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	var req v1.JoinRequest
	if apiErr := s.bindJSON(c, &req); apiErr != nil {
		writeError(c, apiErr)
		return
	}
	kind, err := req.Validate()
	if err != nil {
		writeError(c, badRequest(err))
		return
	}

	e, err := manager(c).Join(c.Request.Context(), id, req.Member.Domain(), kind)
	respond(c, e, err)
}

func (s *Service) LeaveHandler(c *gin.Context) {
	id, apiErr := eventID(c)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	var req v1.LeaveRequest
	if apiErr := s.bindJSON(c, &req); apiErr != nil {
		writeError(c, apiErr)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(c, badRequest(err))
		return
	}

	e, err := manager(c).Leave(c.Request.Context(), id, req.MemberID)
	respond(c, e, err)
}

func (s *Service) EditEventHandler(c *gin.Context) {
	id, apiErr := eventID(c)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	var req v1.EditRequest
	if apiErr := s.bindJSON(c, &req); apiErr != nil {
		writeError(c, apiErr)
		return
	}
	edit, err := req.Parse()
	if err != nil {
		writeError(c, badRequest(err))
		return
	}

	m := manager(c)
	ctx := c.Request.Context()
	var e *event.Event
	switch edit.Field {
	case v1.FieldTime:
		e, err = m.SetScheduledTime(ctx, id, edit.Time)
	case v1.FieldDescription:
		e, err = m.SetDescription(ctx, id, edit.Description)
	case v1.FieldGroupSize:
		e, err = m.SetGroupSize(ctx, id, edit.GroupSize)
	case v1.FieldRecurring:
		e, err = m.SetRecurring(ctx, id, edit.Recurring)
	}
	respond(c, e, err)
}

func (s *Service) DeleteEventHandler(c *gin.Context) {
	id, apiErr := eventID(c)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	e, err := manager(c).DeleteEvent(c.Request.Context(), id)
	respond(c, e, err)
}

// TrackHandler starts mirroring an event into an existing message.
func (s *Service) TrackHandler(c *gin.Context) {
	id, apiErr := eventID(c)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	var req v1.TrackRequest
	if apiErr := s.bindJSON(c, &req); apiErr != nil {
		writeError(c, apiErr)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(c, badRequest(err))
		return
	}

	msg := views.TrackedMessage{ChannelID: req.ChannelID, Handle: views.Handle(req.MessageID)}
	if err := manager(c).TrackMessage(c.Request.Context(), id, msg); err != nil {
		if errors.Is(err, event.ErrNotFound) {
			writeError(c, domainError(err, nil))
			return
		}
		slog.Warn("[LFG] Failed to track message", "event_id", id.String(), "error", err)
		writeError(c, &apiError{
			statusCode: http.StatusBadGateway,
			errorType:  httperr.HttpInternalError,
			message:    "Failed to render tracked message",
		})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "tracking"})
}

// InteractionHandler answers pings and applies roster button presses.
func (s *Service) InteractionHandler(c *gin.Context) {
	var in v1.Interaction
	if apiErr := s.bindJSON(c, &in); apiErr != nil {
		writeError(c, apiErr)
		return
	}

	switch in.Type {
	case v1.InteractionPing:
		c.JSON(http.StatusOK, v1.InteractionResponse{Type: "pong"})
		return
	case v1.InteractionComponent:
	default:
		writeError(c, badRequest(fmt.Errorf("unknown interaction type %q", in.Type)))
		return
	}

	action, err := in.ParseComponent()
	if err != nil {
		writeError(c, badRequest(err))
		return
	}

	m := manager(c)
	ctx := c.Request.Context()
	var e *event.Event
	var message string
	if kind, ok := action.JoinKind(); ok {
		e, err = m.Join(ctx, action.EventID, in.Member.Domain(), kind)
		message = fmt.Sprintf("Joined %s as %s", action.EventID, kind)
	} else {
		e, err = m.Leave(ctx, action.EventID, in.Member.ID)
		message = fmt.Sprintf("Left %s", action.EventID)
	}
	if err != nil {
		writeError(c, domainError(err, e))
		return
	}

	resp := v1.NewEventResponse(e)
	c.JSON(http.StatusOK, v1.InteractionResponse{Type: "message", Message: message, Event: &resp})
}

// respond writes the committed event or the classified error.
func respond(c *gin.Context, e *event.Event, err error) {
	if err != nil {
		writeError(c, domainError(err, e))
		return
	}
	c.JSON(http.StatusOK, v1.NewEventResponse(e))
}

// bindJSON reads at most maxBodySizeBytes of body and binds it into dst.
func (s *Service) bindJSON(c *gin.Context, dst interface{}) *apiError {
	maxBytes := int64(s.maxBodySizeBytes)
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBytes+1))
	if err != nil {
		slog.Error("[LFG] Failed to read request body", "error", err)
		return &apiError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgReadBodyFailed,
		}
	}
	if int64(len(body)) > maxBytes {
		return &apiError{
			statusCode: http.StatusRequestEntityTooLarge,
			errorType:  httperr.HttpInvalidRequestError,
			message:    msgBodyTooLarge,
			details:    map[string]interface{}{"max_size_kb": maxBytes / 1024},
		}
	}

	c.Request.Body = io.NopCloser(bytes.NewReader(body))
	if err := c.ShouldBindJSON(dst); err != nil {
		slog.Warn("[LFG] Invalid JSON body received", "error", err, "payload_size", len(body))
		return &apiError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidRequestError,
			message:    msgInvalidJSON,
		}
	}
	return nil
}

func writeError(c *gin.Context, err *apiError) {
	c.JSON(err.statusCode, httperr.ErrorResponse{
		ErrorType: err.errorType,
		Message:   err.message,
		Details:   err.details,
	})
}
