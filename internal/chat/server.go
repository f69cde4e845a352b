package chat

import (
	"context"
	"time"

	apperrors "tradehub/internal/common/errors"
	"tradehub/internal/common/logger"

	socketio "github.com/doquangtan/socket.io/v4"
	"github.com/gofiber/fiber/v2"
)

const eventTimeout = 5 * time.Second

// Server binds the hub to socket.io events.
type Server struct {
	io     *socketio.Io
	hub    *Hub
	logger logger.Logger
}

func NewServer(hub *Hub, log logger.Logger) *Server {
	s := &Server{
		io:     socketio.New(),
		hub:    hub,
		logger: log.WithFields(map[string]interface{}{"component": "chat-server"}),
	}
	s.setupHandlers()
	return s
}

// Mount registers the socket.io endpoint on the fiber app.
func (s *Server) Mount(app *fiber.App) {
	app.Use("/", s.io.Middleware)
	app.Route("/socket.io", s.io.FiberRoute)
}

// Broadcast emits an event to every socket in room.
func (s *Server) Broadcast(room, event string, payload interface{}) {
	s.io.To(room).Emit(event, payload)
}

func (s *Server) setupHandlers() {
	s.io.OnAuthorization(func(params map[string]string) bool {
		return s.hub.Authorize(params["token"])
	})

	s.io.OnConnection(func(socket *socketio.Socket) {
		s.hub.Connect(socket.Id)

		socket.On(EventJoin, func(event *socketio.EventPayload) {
			data := payload(event)
			ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
			defer cancel()

			res, err := s.hub.Join(ctx, socket.Id, str(data, "token"), str(data, "peer_id"))
			if err != nil {
				s.emitError(socket, EventJoin, err)
				return
			}
			socket.Join(res.Room)
			socket.Emit(EventHistory, res)
			s.Broadcast(res.Room, EventPresence, res.Presence)
		})

		socket.On(EventMessage, func(event *socketio.EventPayload) {
			data := payload(event)
			ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
			defer cancel()

			msg, err := s.hub.Send(ctx, socket.Id, str(data, "room"), str(data, "body"))
			if err != nil {
				s.emitError(socket, EventMessage, err)
				return
			}
			s.Broadcast(msg.Room, EventMessage, msg)
		})

		socket.On(EventTyping, func(event *socketio.EventPayload) {
			typing, err := s.hub.Typing(socket.Id, str(payload(event), "room"))
			if err != nil {
				s.emitError(socket, EventTyping, err)
				return
			}
			s.Broadcast(typing.Room, EventTyping, typing)
		})

		socket.On(EventLeave, func(event *socketio.EventPayload) {
			room := str(payload(event), "room")
			ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
			defer cancel()

			update, err := s.hub.Leave(ctx, socket.Id, room)
			if err != nil {
				s.emitError(socket, EventLeave, err)
				return
			}
			socket.Leave(room)
			s.Broadcast(room, EventPresence, update)
		})

		socket.On("disconnect", func(event *socketio.EventPayload) {
			ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
			defer cancel()

			for _, update := range s.hub.Disconnect(ctx, socket.Id) {
				s.Broadcast(update.Room, EventPresence, update)
			}
		})
	})
}

func (s *Server) emitError(socket *socketio.Socket, event string, err error) {
	stdErr := apperrors.Normalize(err)
	s.logger.Warn("Chat event rejected", map[string]interface{}{
		"socketId":  socket.Id,
		"event":     event,
		"errorCode": string(stdErr.Code),
		"details":   stdErr.Details,
	})
	socket.Emit(EventError, map[string]interface{}{
		"event":   event,
		"code":    stdErr.Code,
		"message": stdErr.Message,
	})
}

func payload(event *socketio.EventPayload) map[string]interface{} {
	if event == nil || len(event.Data) == 0 {
		return map[string]interface{}{}
	}
	if m, ok := event.Data[0].(map[string]interface{}); ok {
		return m
	}
	return map[string]interface{}{}
}

func str(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}
