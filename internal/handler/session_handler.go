package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"mockai/internal/capture"
	apperrors "mockai/internal/errors"
	"mockai/internal/models"
	"mockai/internal/orchestrator"
	"mockai/internal/service"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
	// A browser MediaRecorder chunk; video at high bitrates stays well below this.
	wsMaxMessage = 8 << 20
)

// Control message types sent by the client.
const (
	ControlStart  = "start"
	ControlStop   = "stop"
	ControlCancel = "cancel"
	ControlRetry  = "retry"
)

// Event types sent to the client.
const (
	EventState      = "state"
	EventTick       = "tick"
	EventWarning    = "warning"
	EventTranscript = "transcript"
	EventComplete   = "complete"
	EventFailed     = "failed"
	EventError      = "error"
)

// ControlMessage is a text frame from the client. Binary frames carry media.
type ControlMessage struct {
	Type     string `json:"type"`
	Mode     string `json:"mode,omitempty"`
	MIMEType string `json:"mimeType,omitempty"`
	// Denied reports that the browser refused microphone or camera access.
	Denied bool `json:"denied,omitempty"`
}

// SessionEvent is a text frame sent to the client.
type SessionEvent struct {
	Type       string                `json:"type"`
	Status     models.SessionStatus  `json:"status,omitempty"`
	Elapsed    int                   `json:"elapsed,omitempty"`
	Transcript string                `json:"transcript,omitempty"`
	Result     *models.ResultDisplay `json:"result,omitempty"`
	Stage      apperrors.Stage       `json:"stage,omitempty"`
	Error      string                `json:"error,omitempty"`
}

// SessionHandler runs live recording sessions over a websocket.
type SessionHandler struct {
	service  service.SessionServicer
	upgrader websocket.Upgrader
	log      logrus.FieldLogger
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(service service.SessionServicer, log logrus.FieldLogger) *SessionHandler {
	return &SessionHandler{
		service: service,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) send(ev SessionEvent) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return w.write(websocket.TextMessage, b)
}

func (w *wsConn) write(messageType int, data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.c.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return w.c.WriteMessage(messageType, data)
}

// Session handles GET /api/v1/questions/:id/session.
// The websocket carries control messages (start, stop, cancel, retry) as text
// frames and media chunks as binary frames; the server answers with session events.
func (h *SessionHandler) Session(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	questionID, ok := questionIDParam(c)
	if !ok {
		return
	}

	var conn *wsConn
	emit := func(ev SessionEvent) {
		if conn == nil {
			return
		}
		if err := conn.send(ev); err != nil {
			h.log.WithError(err).WithField("event", ev.Type).Debug("session event dropped")
		}
	}

	device := capture.NewPushDevice("", "")
	session, err := h.service.OpenSession(c.Request.Context(), userID, questionID, device, orchestrator.SessionOptions{
		OnStateChange: func(s models.SessionStatus) { emit(SessionEvent{Type: EventState, Status: s}) },
		OnTick:        func(d time.Duration) { emit(SessionEvent{Type: EventTick, Elapsed: int(d / time.Second)}) },
		OnWarning:     func() { emit(SessionEvent{Type: EventWarning}) },
		OnTranscript:  func(text string) { emit(SessionEvent{Type: EventTranscript, Transcript: text}) },
		OnComplete:    func(r *models.ResultDisplay) { emit(SessionEvent{Type: EventComplete, Result: r}) },
		OnFailure: func(stage apperrors.Stage, err error) {
			emit(SessionEvent{Type: EventFailed, Stage: stage, Error: err.Error()})
		},
	})
	if err != nil {
		writeError(c, err)
		return
	}
	defer session.Close()

	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote the response
		return
	}
	defer ws.Close()
	conn = &wsConn{c: ws}

	log := h.log.WithFields(logrus.Fields{"sessionId": session.ID(), "questionId": questionID.Hex()})
	log.Info("session connected")

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	go h.keepAlive(ctx, conn)

	emit(SessionEvent{Type: EventState, Status: session.Status()})

	ws.SetReadLimit(wsMaxMessage)
	_ = ws.SetReadDeadline(time.Now().Add(wsPongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		kind, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.WithError(err).Warn("session connection lost")
			}
			break
		}

		if kind == websocket.BinaryMessage {
			if err := device.Push(data); err != nil {
				emit(SessionEvent{Type: EventError, Error: err.Error()})
			}
			continue
		}

		var msg ControlMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			emit(SessionEvent{Type: EventError, Error: "invalid control message"})
			continue
		}
		if err := h.control(ctx, session, device, msg); err != nil {
			emit(SessionEvent{Type: EventError, Error: err.Error()})
		}
	}

	log.WithField("status", session.Status()).Info("session disconnected")
}

func (h *SessionHandler) control(ctx context.Context, session *orchestrator.Session, device *capture.PushDevice, msg ControlMessage) error {
	switch msg.Type {
	case ControlStart:
		mode, ok := models.ParseRecordingMode(msg.Mode)
		if !ok {
			return apperrors.ErrInvalidMode
		}
		device.SetMIMEType(msg.MIMEType)
		if msg.Denied {
			device.Reject(apperrors.ErrMediaAccess)
		}
		return session.Start(ctx, mode)
	case ControlStop:
		return session.Stop()
	case ControlCancel:
		session.Cancel()
		return nil
	case ControlRetry:
		return session.Retry(ctx)
	default:
		return errors.New("unknown message type")
	}
}

func (h *SessionHandler) keepAlive(ctx context.Context, conn *wsConn) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
