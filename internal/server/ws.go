package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/zhaddad/aeromind/internal/agent"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// chatRequest is the incoming WebSocket message format.
type chatRequest struct {
	Type      string `json:"type"` // "ask" or "plan"
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	Content   string `json:"content"`
}

// chatResponse is the outgoing WebSocket message format.
type chatResponse struct {
	Type                 string   `json:"type"` // "response", "plan" or "error"
	SessionID            string   `json:"session_id"`
	Content              string   `json:"content,omitempty"`
	Plan                 any      `json:"plan,omitempty"`
	Confidence           float64  `json:"confidence,omitempty"`
	FactChecked          bool     `json:"fact_checked,omitempty"`
	Reasoning            []string `json:"reasoning,omitempty"`
	SuggestedAlternative string   `json:"suggested_alternative,omitempty"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("server: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	// One session spans the connection unless the client sends its own.
	connSession := uuid.NewString()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("server: websocket read: %v", err)
			}
			return
		}

		var req chatRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			sendError(conn, "", "invalid message format")
			continue
		}
		if req.Content == "" {
			sendError(conn, req.SessionID, "content is required")
			continue
		}
		if req.SessionID == "" {
			req.SessionID = connSession
		}

		switch req.Type {
		case "", "ask":
			s.handleChatAsk(conn, r, req)
		case "plan":
			s.handleChatPlan(conn, r, req)
		default:
			sendError(conn, req.SessionID, "unknown message type: "+req.Type)
		}
	}
}

func (s *Server) handleChatAsk(conn *websocket.Conn, r *http.Request, req chatRequest) {
	env := s.agent.ExecuteQuery(r.Context(), req.Content, agent.Context{
		SessionID: req.SessionID,
		UserID:    req.UserID,
	})
	if !env.Success {
		resp := chatResponse{
			Type:                 "error",
			SessionID:            req.SessionID,
			Content:              env.Error,
			SuggestedAlternative: env.SuggestedAlternative,
		}
		sendResponse(conn, resp)
		return
	}

	sendResponse(conn, chatResponse{
		Type:        "response",
		SessionID:   req.SessionID,
		Content:     env.Answer,
		Confidence:  env.Confidence,
		FactChecked: env.FactChecked,
		Reasoning:   env.Reasoning,
	})
}

func (s *Server) handleChatPlan(conn *websocket.Conn, r *http.Request, req chatRequest) {
	plan, err := s.agent.PlanQuery(r.Context(), req.Content, agent.Context{
		SessionID: req.SessionID,
		UserID:    req.UserID,
	})
	if err != nil {
		sendError(conn, req.SessionID, "planning failed: "+err.Error())
		return
	}

	sendResponse(conn, chatResponse{
		Type:      "plan",
		SessionID: req.SessionID,
		Plan:      plan,
	})
}

func sendResponse(conn *websocket.Conn, resp chatResponse) {
	if err := conn.WriteJSON(resp); err != nil {
		log.Printf("server: websocket write: %v", err)
	}
}

func sendError(conn *websocket.Conn, sessionID, message string) {
	resp := chatResponse{
		Type:      "error",
		SessionID: sessionID,
		Content:   message,
	}
	if err := conn.WriteJSON(resp); err != nil {
		log.Printf("server: websocket write error: %v", err)
	}
}
