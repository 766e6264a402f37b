package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/fasthttp/router"

	"github.com/classpulse/notification-engine/internal/model"
	"github.com/classpulse/notification-engine/internal/repository"
	"github.com/classpulse/notification-engine/internal/rollup"
	"github.com/classpulse/notification-engine/internal/scheduler"
	xhttp "github.com/classpulse/notification-engine/pkg/http"
)

type EnqueueService interface {
	EnqueueMessage(ctx context.Context, messageID string) (scheduler.EnqueueResult, error)
}

type MessageStore interface {
	Create(ctx context.Context, msg *model.Message) (*model.Message, error)
	Get(ctx context.Context, id string) (*model.Message, error)
	List(ctx context.Context, f model.MessageFilter) ([]*model.Message, int64, error)
}

type DeliveryReader interface {
	ListEventsByMessage(ctx context.Context, messageID string) ([]*model.DeliveryEvent, error)
}

type DeadLetterReader interface {
	ListByMessage(ctx context.Context, messageID string) ([]*model.DeadLetter, error)
}

type MessageHandler struct {
	enqueue     EnqueueService
	messages    MessageStore
	deliveries  DeliveryReader
	deadLetters DeadLetterReader
}

func RegisterMessageRoutes(e *router.Group, h *MessageHandler) {
	e.POST("/messages", h.CreateMessage)
	e.GET("/messages/{id}", h.GetMessage)
	e.POST("/messages/{id}/enqueue", h.EnqueueMessage)
	e.GET("/messages/{id}/deliverability", h.GetDeliverability)
	e.GET("/messages/{id}/dead-letters", h.ListDeadLetters)
	e.GET("/messages", h.ListMessages)
}

func NewMessageHandler(enqueue EnqueueService, messages MessageStore, deliveries DeliveryReader, deadLetters DeadLetterReader) *MessageHandler {
	return &MessageHandler{
		enqueue:     enqueue,
		messages:    messages,
		deliveries:  deliveries,
		deadLetters: deadLetters,
	}
}

type listResponse struct {
	Items []*model.Message `json:"items"`
	Total int64            `json:"total"`
}

type deadLetterResponse struct {
	Items []*model.DeadLetter `json:"items"`
}

/* --------------------------------- Routes ----------------------------------- */

// CreateMessage stores a new message. A send_at in the request schedules it
// for the timer loop; without one the message starts pending and goes out on
// the next tick.
func (h *MessageHandler) CreateMessage(ctx *xhttp.RequestCtx) {
	var req model.MessageCreateRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		writeError(ctx, 400, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(ctx, 400, err.Error())
		return
	}

	status := model.MessageStatusPending
	if req.SendAt != nil {
		status = model.MessageStatusScheduled
	}
	msg, err := h.messages.Create(ctx, &model.Message{
		TenantID: req.TenantID,
		SchoolID: req.SchoolID,
		Channel:  req.Channel,
		Title:    req.Title,
		Body:     req.Body,
		Payload:  req.Payload,
		Segment:  req.Segment,
		Status:   status,
		SendAt:   req.SendAt,
	})
	if err != nil {
		writeError(ctx, 500, err.Error())
		return
	}
	writeJSON(ctx, 201, msg)
}

func (h *MessageHandler) GetMessage(ctx *xhttp.RequestCtx) {
	id := pathParam(ctx, "id")
	if id == "" {
		writeError(ctx, 400, "message id is required")
		return
	}

	msg, err := h.messages.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		writeError(ctx, 404, "message not found")
		return
	}
	if err != nil {
		writeError(ctx, 500, err.Error())
		return
	}
	writeJSON(ctx, 200, msg)
}

// EnqueueMessage is the synchronous producer trigger: fan a message out
// right after creation instead of waiting for the next scheduler tick.
// Idempotent; a repeat call reports the current status with zero new
// entries.
func (h *MessageHandler) EnqueueMessage(ctx *xhttp.RequestCtx) {
	id := pathParam(ctx, "id")
	if id == "" {
		writeError(ctx, 400, "message id is required")
		return
	}

	res, err := h.enqueue.EnqueueMessage(ctx, id)
	if err != nil {
		writeError(ctx, 500, err.Error())
		return
	}
	if res.Status == model.MessageStatusMissing {
		writeJSON(ctx, 404, res)
		return
	}
	writeJSON(ctx, 200, res)
}

func (h *MessageHandler) GetDeliverability(ctx *xhttp.RequestCtx) {
	id := pathParam(ctx, "id")
	if id == "" {
		writeError(ctx, 400, "message id is required")
		return
	}

	events, err := h.deliveries.ListEventsByMessage(ctx, id)
	if err != nil {
		writeError(ctx, 500, err.Error())
		return
	}
	writeJSON(ctx, 200, rollup.RollupEvents(events))
}

func (h *MessageHandler) ListDeadLetters(ctx *xhttp.RequestCtx) {
	id := pathParam(ctx, "id")
	if id == "" {
		writeError(ctx, 400, "message id is required")
		return
	}

	items, err := h.deadLetters.ListByMessage(ctx, id)
	if err != nil {
		writeError(ctx, 500, err.Error())
		return
	}
	writeJSON(ctx, 200, deadLetterResponse{Items: items})
}

func (h *MessageHandler) ListMessages(ctx *xhttp.RequestCtx) {
	var f model.MessageFilter

	if v := query(ctx, "tenant_id"); v != "" {
		f.TenantID = &v
	}
	if v := query(ctx, "channel"); v != "" {
		c := model.Channel(v)
		f.Channel = &c
	}
	if v := query(ctx, "status"); v != "" {
		parts := strings.Split(v, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
			if parts[i] != "" {
				f.Statuses = append(f.Statuses, model.MessageStatus(parts[i]))
			}
		}
	}
	if v := query(ctx, "from"); v != "" {
		if t, e := parseTime(v); e == nil {
			f.From = &t
		}
	}
	if v := query(ctx, "to"); v != "" {
		if t, e := parseTime(v); e == nil {
			f.To = &t
		}
	}
	if v := query(ctx, "limit"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			f.Limit = n
		}
	}
	if v := query(ctx, "offset"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			f.Offset = n
		}
	}
	if strings.EqualFold(query(ctx, "order"), "desc") {
		f.Desc = true
	}

	items, total, err := h.messages.List(ctx, f)
	if err != nil {
		writeError(ctx, 400, err.Error())
		return
	}
	writeJSON(ctx, 200, listResponse{Items: items, Total: total})
}

func pathParam(ctx *xhttp.RequestCtx, name string) string {
	if v, ok := ctx.UserValue(name).(string); ok {
		return v
	}
	return ""
}

func query(ctx *xhttp.RequestCtx, name string) string {
	return string(ctx.QueryArgs().Peek(name))
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

func writeJSON(ctx *xhttp.RequestCtx, status int, v any) {
	b, _ := json.Marshal(v)
	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.Response.SetStatusCode(status)
	ctx.Response.SetBodyRaw(b)
}

func writeError(ctx *xhttp.RequestCtx, status int, msg string) {
	writeJSON(ctx, status, map[string]string{"error": msg})
}
