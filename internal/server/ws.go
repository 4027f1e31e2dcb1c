package server

import (
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/swissenergydata/decipher/internal/config"
	"github.com/swissenergydata/decipher/internal/orchestrator"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Same-origin policy is enforced by the CORS layer for the JSON API; the
	// dashboard is the only intended WS client.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type wsRequest struct {
	Query   string `json:"query"`
	Persona string `json:"persona,omitempty"`
	Clear   bool   `json:"clear,omitempty"`
}

type wsResponse struct {
	Type        string   `json:"type"` // "answer", "cleared", or "error"
	Content     string   `json:"content,omitempty"`
	ContentHTML string   `json:"content_html,omitempty"`
	Confidence  float64  `json:"confidence,omitempty"`
	DataSources []string `json:"data_sources,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// handleWS runs one chat conversation per connection. The connection owns
// its session; history dies with the socket.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("server: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	session := orchestrator.NewSession(uuid.NewString(), s.persona)

	for {
		var req wsRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("server: websocket read: %v", err)
			}
			return
		}

		if req.Clear {
			session.Clear()
			if err := conn.WriteJSON(wsResponse{Type: "cleared"}); err != nil {
				return
			}
			continue
		}
		if req.Query == "" {
			if err := conn.WriteJSON(wsResponse{Type: "error", Content: "query is required"}); err != nil {
				return
			}
			continue
		}

		persona := session.Persona
		if req.Persona != "" {
			persona = config.Persona(req.Persona)
		}

		resp := s.orch.Process(r.Context(), req.Query, persona, session.Turns())
		session.Append(req.Query, resp)

		if err := conn.WriteJSON(wsResponse{
			Type:        "answer",
			Content:     resp.Content,
			ContentHTML: s.renderMarkdown(resp.Content),
			Confidence:  resp.Confidence,
			DataSources: resp.DataSources,
			Suggestions: resp.Suggestions,
		}); err != nil {
			return
		}
	}
}
