package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"collab-hub/contract"
	"collab-hub/domain"
	"collab-hub/domain/event"
	"collab-hub/errors"
	"collab-hub/sink"

	"github.com/gorilla/websocket"
)

const maxMessageSize = 1 << 20 // 1 MiB, bounds a propose-update payload

// Conn drives one authenticated connection: a read pump dispatching
// inbound envelopes to the service, and a write pump draining the
// connection's sink. Within one connection messages are processed in the
// order received; cross-connection ordering comes from the orchestrator's
// per-document serialization, not from here.
type Conn struct {
	ws          *websocket.Conn
	participant domain.Participant
	sink        *sink.ConnSink
	service     contract.ICollabService
	log         *slog.Logger

	writeWait time.Duration
	pongWait  time.Duration
	done      chan struct{}
}

func newConn(wsConn *websocket.Conn, p domain.Participant, connSink *sink.ConnSink,
	service contract.ICollabService, log *slog.Logger, writeWait, pongWait time.Duration) *Conn {
	return &Conn{
		ws:          wsConn,
		participant: p,
		sink:        connSink,
		service:     service,
		log:         log,
		writeWait:   writeWait,
		pongWait:    pongWait,
		done:        make(chan struct{}),
	}
}

// run blocks until the connection dies, then performs cleanup exactly
// once. Closing the socket cancels all further processing for this
// connection; no in-flight message from a dead connection is applied
// after cleanup begins, because the read pump has already returned.
func (c *Conn) run(ctx context.Context) {
	go c.writePump()
	c.readPump(ctx)

	c.service.Disconnect(ctx, c.participant.ConnID)
	close(c.done)
	_ = c.ws.Close()
}

func (c *Conn) readPump(ctx context.Context) {
	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(c.pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(c.pongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("connection dropped", "conn_id", c.participant.ConnID, "error", err)
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.emitError(ctx, "", &errors.ValidationError{Reason: "malformed envelope"})
			continue
		}
		c.dispatch(ctx, env)
	}
}

// dispatch maps one inbound envelope to its service operation. Operation
// errors never kill the connection: they are emitted back to this
// connection as a tagged error event and shared state is untouched.
func (c *Conn) dispatch(ctx context.Context, env Envelope) {
	switch env.Type {
	case TypeJoinDocument:
		var p joinDocumentPayload
		if !c.decode(ctx, env, &p) {
			return
		}
		if err := c.service.Join(ctx, p.DocumentID, c.participant); err != nil {
			c.emitError(ctx, p.DocumentID, err)
		}

	case TypeLeaveDocument:
		var p joinDocumentPayload
		if !c.decode(ctx, env, &p) {
			return
		}
		c.service.Leave(ctx, p.DocumentID, c.participant)

	case TypeLockField:
		var p lockFieldPayload
		if !c.decode(ctx, env, &p) {
			return
		}
		c.service.AcquireLock(ctx, p.DocumentID, p.FieldID, c.participant)

	case TypeUnlockField:
		var p lockFieldPayload
		if !c.decode(ctx, env, &p) {
			return
		}
		c.service.ReleaseLock(ctx, p.DocumentID, p.FieldID, c.participant)

	case TypeProposeUpdate:
		var p proposeUpdatePayload
		if !c.decode(ctx, env, &p) {
			return
		}
		if err := c.service.Propose(ctx, p.DocumentID, p.Updates, p.ClientVersion, c.participant); err != nil {
			c.emitError(ctx, p.DocumentID, err)
		}

	case TypeAddComment:
		var p addCommentPayload
		if !c.decode(ctx, env, &p) {
			return
		}
		if err := c.service.AddComment(ctx, p.DocumentID, p.FieldID, p.Text, p.ParentID, c.participant); err != nil {
			c.emitError(ctx, p.DocumentID, err)
		}

	case TypeResolveComment:
		var p resolveCommentPayload
		if !c.decode(ctx, env, &p) {
			return
		}
		if err := c.service.ResolveComment(ctx, p.DocumentID, p.CommentID, c.participant); err != nil {
			c.emitError(ctx, p.DocumentID, err)
		}

	case TypeSearchComments:
		var p searchCommentsPayload
		if !c.decode(ctx, env, &p) {
			return
		}
		if err := c.service.SearchComments(ctx, p.DocumentID, p.Query, c.participant); err != nil {
			c.emitError(ctx, p.DocumentID, err)
		}

	default:
		c.emitError(ctx, "", &errors.ValidationError{Reason: fmt.Sprintf("unknown event type %q", env.Type)})
	}
}

func (c *Conn) decode(ctx context.Context, env Envelope, dst any) bool {
	if err := json.Unmarshal(env.Payload, dst); err != nil {
		c.emitError(ctx, "", &errors.ValidationError{Reason: "malformed payload for " + env.Type})
		return false
	}
	return true
}

// emitError feeds the tagged error event through this connection's own
// sink so it is serialized with the rest of the outbound stream.
func (c *Conn) emitError(ctx context.Context, documentID string, err error) {
	evt := event.Error{DocID: documentID, Kind: errors.Kind(err), Message: err.Error()}
	if consumeErr := c.sink.Consume(ctx, evt); consumeErr != nil {
		c.log.Debug("error event dropped", "conn_id", c.participant.ConnID, "error", consumeErr)
	}
}

func (c *Conn) writePump() {
	// Ping at a fraction of the pong deadline so a healthy peer always
	// answers in time.
	ticker := time.NewTicker(c.pongWait * 9 / 10)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case evt := <-c.sink.Events:
			data, err := encode(evt)
			if err != nil {
				c.log.Error("event encoding failed", "event", evt.Name(), "error", err)
				continue
			}
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
