package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocket upgrader with reasonable defaults.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow connections from any origin in development
		// In production, you should check against allowed origins
		return true
	},
}

// WebSocketClassifyRequest represents a classification request via WebSocket.
// Image carries base64-encoded bytes when sent as JSON.
type WebSocketClassifyRequest struct {
	Type  string `json:"type"` // "image"
	Image []byte `json:"image,omitempty"`
}

// WebSocketClassifyResponse represents a classification response via WebSocket.
type WebSocketClassifyResponse struct {
	Type      string      `json:"type"`
	Status    string      `json:"status"` // "processing", "completed", "error"
	Result    interface{} `json:"result,omitempty"`
	Error     string      `json:"error,omitempty"`
	ErrorType string      `json:"error_type,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

// classifyWebSocketHandler handles WebSocket connections for streaming
// classification.
func (s *Server) classifyWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	websocketConnections.Inc()
	defer websocketConnections.Dec()

	slog.Info("WebSocket connection established", "remote_addr", r.RemoteAddr)

	s.handleWebSocketConnection(conn)
}

// handleWebSocketConnection processes messages from a WebSocket connection.
func (s *Server) handleWebSocketConnection(conn *websocket.Conn) {
	// Read deadline prevents hanging connections
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	// Periodic pings keep the connection alive
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
					return
				}
			}
		}
	}()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("WebSocket error", "error", err)
			}
			break
		}

		websocketMessagesTotal.WithLabelValues("received").Inc()

		switch messageType {
		case websocket.TextMessage:
			s.handleWebSocketMessage(conn, data)
		case websocket.BinaryMessage:
			// Raw image frames skip the JSON envelope.
			requestID := newRequestID()
			s.processWebSocketImage(conn, data, requestID)
		}
	}
}

// handleWebSocketMessage processes a JSON WebSocket message.
func (s *Server) handleWebSocketMessage(conn *websocket.Conn, data []byte) {
	var req WebSocketClassifyRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.sendWebSocketError(conn, "invalid_request", fmt.Sprintf("Failed to parse request: %v", err))
		return
	}

	requestID := newRequestID()

	if req.Type != "image" {
		s.sendWebSocketError(conn, "invalid_request", "Unsupported request type: "+req.Type)
		return
	}
	if len(req.Image) == 0 {
		s.sendWebSocketError(conn, "invalid_request", "No image data provided")
		return
	}

	s.sendWebSocketResponse(conn, WebSocketClassifyResponse{
		Type:      "classify_response",
		Status:    "processing",
		RequestID: requestID,
	})

	s.processWebSocketImage(conn, req.Image, requestID)
}

// processWebSocketImage classifies image bytes received over the socket.
func (s *Server) processWebSocketImage(conn *websocket.Conn, imageData []byte, requestID string) {
	start := time.Now()
	res, err := s.pipeline.ClassifyBytes(imageData)
	duration := time.Since(start)

	if err != nil {
		classifyRequestsTotal.WithLabelValues("websocket", "error").Inc()
		s.sendWebSocketError(conn, "processing_error", fmt.Sprintf("Classification failed: %v", err))
		return
	}

	recordClassification("websocket", duration.Seconds(), res.Outcome, res.Confidence)

	s.sendWebSocketResponse(conn, WebSocketClassifyResponse{
		Type:      "classify_response",
		Status:    "completed",
		Result:    res,
		RequestID: requestID,
	})
}

// sendWebSocketResponse sends a JSON response over the connection.
func (s *Server) sendWebSocketResponse(conn *websocket.Conn, resp WebSocketClassifyResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		slog.Error("Failed to marshal WebSocket response", "error", err)
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Error("Failed to write WebSocket message", "error", err)
		return
	}
	websocketMessagesTotal.WithLabelValues("sent").Inc()
}

// sendWebSocketError sends an error response over the connection.
func (s *Server) sendWebSocketError(conn *websocket.Conn, errorType, message string) {
	s.sendWebSocketResponse(conn, WebSocketClassifyResponse{
		Type:      "classify_response",
		Status:    "error",
		Error:     message,
		ErrorType: errorType,
	})
}

// newRequestID generates a request identifier for tracking.
func newRequestID() string {
	return strconv.FormatInt(time.Now().UnixNano(), 10)
}
