package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/ayusman/physiotrack/internal/engine"
	"github.com/ayusman/physiotrack/internal/metrics"
	"github.com/ayusman/physiotrack/internal/pose"
)

// maxMessageSize bounds a single inbound pose message.
const maxMessageSize = 1 << 20

// closeWriteWait bounds the going-away frame write during shutdown.
const closeWriteWait = time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Pose clients connect from any origin
	},
}

// Evaluator applies pose samples to the shared rep-counting state.
type Evaluator interface {
	Evaluate(sample pose.Sample) engine.Result
}

// PoseHandler runs one websocket session per connection. Every session feeds
// the same Evaluator.
type PoseHandler struct {
	engine  Evaluator
	metrics *metrics.Manager
	clients map[*websocket.Conn]bool
	mu      sync.Mutex
}

// NewPoseHandler creates a PoseHandler. metricsManager may be nil.
func NewPoseHandler(e Evaluator, metricsManager *metrics.Manager) *PoseHandler {
	return &PoseHandler{
		engine:  e,
		metrics: metricsManager,
		clients: make(map[*websocket.Conn]bool),
	}
}

// ServeHTTP upgrades websocket requests and describes the endpoint otherwise.
func (h *PoseHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		h.describe(w, r)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("pose: websocket upgrade error: %v", err)
		return
	}
	conn.SetReadLimit(maxMessageSize)

	logger := log.WithField("remote", r.RemoteAddr)
	logger.Info("pose: client connected")

	h.track(conn)
	defer func() {
		h.untrack(conn)
		conn.Close()
		logger.Info("pose: client disconnected")
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warnf("pose: read error: %v", err)
			}
			return
		}

		reply, err := h.handleMessage(data)
		if err != nil {
			logger.Errorf("pose: encode reply: %v", err)
			return
		}
		if err := conn.WriteMessage(websocket.TextMessage, reply); err != nil {
			logger.Warnf("pose: write error: %v", err)
			return
		}
	}
}

// handleMessage evaluates one inbound message and returns the encoded reply.
func (h *PoseHandler) handleMessage(data []byte) ([]byte, error) {
	sample, err := pose.ParseMessage(data)
	if err != nil {
		log.Debugf("pose: %v", err)
		h.countMessage("invalid")
		return pose.EncodeInvalidFormat(), nil
	}

	res := h.engine.Evaluate(sample)
	outcome := "ok"
	if !sample.HasLandmarks() {
		outcome = "idle"
	}
	h.countMessage(outcome)
	if res.RepCompleted && h.metrics != nil {
		h.metrics.CounterReps.WithLabelValues(res.ActiveExercise).Inc()
	}

	return pose.EncodeResult(res.Message())
}

func (h *PoseHandler) countMessage(outcome string) {
	if h.metrics != nil {
		h.metrics.CounterPoseMessages.WithLabelValues(outcome).Inc()
	}
}

func (h *PoseHandler) track(conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()
	if h.metrics != nil {
		h.metrics.GaugeSessions.Inc()
	}
}

func (h *PoseHandler) untrack(conn *websocket.Conn) {
	h.mu.Lock()
	_, ok := h.clients[conn]
	delete(h.clients, conn)
	h.mu.Unlock()
	if ok && h.metrics != nil {
		h.metrics.GaugeSessions.Dec()
	}
}

// Sessions returns the number of open sessions.
func (h *PoseHandler) Sessions() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// CloseAll sends a going-away close frame to every open session and closes it.
// It is safe to call while sessions are replying.
func (h *PoseHandler) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	deadline := time.Now().Add(closeWriteWait)
	for conn := range h.clients {
		// WriteControl may run concurrently with the session's WriteMessage.
		_ = conn.WriteControl(websocket.CloseMessage, msg, deadline)
		conn.Close()
	}
}

type endpointDescription struct {
	Message        string         `json:"message"`
	WebsocketURL   string         `json:"websocket_url"`
	Description    string         `json:"description"`
	DataFormat     map[string]any `json:"data_format"`
	ResponseFormat map[string]any `json:"response_format"`
}

// describe reports the websocket URL and the message formats.
func (h *PoseHandler) describe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, endpointDescription{
		Message:      "Pose evaluation WebSocket endpoint",
		WebsocketURL: "ws://" + r.Host + "/pose",
		Description:  "Connect to this WebSocket URL to send pose data and receive evaluation results",
		DataFormat: map[string]any{
			"pose_landmarks": map[string]pose.Landmark{
				pose.RightShoulder: {X: 0.5, Y: 0.3, Z: 0, Visibility: 0.9},
				pose.RightElbow:    {X: 0.6, Y: 0.4, Z: 0, Visibility: 0.8},
			},
			"exercise": "Bicep Curls",
		},
		ResponseFormat: map[string]any{
			"active_exercise":  "Bicep Curls",
			"rep_counts":       map[string]int{"Bicep Curls": 5},
			"feedback_message": "",
		},
	})
}
