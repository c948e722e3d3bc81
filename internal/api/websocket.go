package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/chordcue/chordcue/core/song"
	"github.com/chordcue/chordcue/internal/logging"
)

// Frame is one WebSocket message sent to prompter clients: the current
// display unit plus playback position.
type Frame struct {
	Type      string            `json:"type"` // "unit" or "error"
	Index     int               `json:"index"`
	Total     int               `json:"total"`
	Playing   bool              `json:"playing"`
	Unit      *song.DisplayUnit `json:"unit,omitempty"`
	Message   string            `json:"message,omitempty"`
	Timestamp string            `json:"timestamp"`
}

// clientCommand is a control message received from a prompter client.
type clientCommand struct {
	Action string `json:"action"` // "next", "prev", "jump", "play", "pause"
	Index  int    `json:"index"`  // target for "jump"
}

// Client represents one WebSocket prompter connection.
type Client struct {
	session *Session
	conn    *websocket.Conn
	send    chan []byte
}

// Session drives the prompter stream of one song: it tracks the current
// display unit, steps on client commands, and paces itself by the song
// tempo while playing.
type Session struct {
	doc *song.Document

	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	commands   chan clientCommand
	mu         sync.RWMutex

	position int
	playing  bool
}

// NewSession creates a prompter session positioned at the first unit.
func NewSession(doc *song.Document) *Session {
	return &Session{
		doc:        doc,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		commands:   make(chan clientCommand, 16),
	}
}

// Run is the session's main loop, handling client registration, commands,
// and autoplay pacing. It runs until the process exits.
func (s *Session) Run() {
	var timer *time.Timer
	var tick <-chan time.Time

	schedule := func() {
		if timer != nil {
			timer.Stop()
		}
		if !s.playing {
			tick = nil
			return
		}
		timer = time.NewTimer(s.unitDuration())
		tick = timer.C
	}

	for {
		select {
		case client := <-s.register:
			s.mu.Lock()
			s.clients[client] = true
			s.mu.Unlock()
			logging.WebSocketEvent("client_connected", s.clientCount())
			client.deliver(s.frame())

		case client := <-s.unregister:
			s.mu.Lock()
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				close(client.send)
			}
			s.mu.Unlock()
			logging.WebSocketEvent("client_disconnected", s.clientCount())

		case cmd := <-s.commands:
			if s.apply(cmd) {
				s.broadcast(s.frame())
				schedule()
			}

		case <-tick:
			if s.position+1 < len(s.doc.Prompter) {
				s.position++
			} else {
				s.playing = false
			}
			s.broadcast(s.frame())
			schedule()
		}
	}
}

// apply executes one client command, reporting whether state changed.
func (s *Session) apply(cmd clientCommand) bool {
	switch cmd.Action {
	case "next":
		if s.position+1 < len(s.doc.Prompter) {
			s.position++
			return true
		}
	case "prev":
		if s.position > 0 {
			s.position--
			return true
		}
	case "jump":
		if cmd.Index >= 0 && cmd.Index < len(s.doc.Prompter) && cmd.Index != s.position {
			s.position = cmd.Index
			return true
		}
	case "play":
		if !s.playing {
			s.playing = true
			return true
		}
	case "pause":
		if s.playing {
			s.playing = false
			return true
		}
	}
	return false
}

// unitDuration is how long the current unit stays up while playing: the
// played measures at the song tempo, or one bar for meta and header units.
func (s *Session) unitDuration() time.Duration {
	tempo := s.doc.Metadata.Tempo
	if tempo <= 0 {
		tempo = 120
	}
	beatsPerBar := s.doc.Metadata.Time.Beats
	if beatsPerBar <= 0 {
		beatsPerBar = 4
	}
	beat := time.Minute / time.Duration(tempo)

	unit := s.current()
	beats := beatsPerBar
	if unit != nil && unit.Kind == song.UnitContent {
		measures := unit.Multiplier * len(unit.Measures)
		if measures > 0 {
			beats = measures * beatsPerBar
		}
	}
	d := time.Duration(beats) * beat
	if d < time.Second {
		d = time.Second
	}
	return d
}

func (s *Session) current() *song.DisplayUnit {
	if s.position < 0 || s.position >= len(s.doc.Prompter) {
		return nil
	}
	return s.doc.Prompter[s.position]
}

// frame renders the current position as a wire message.
func (s *Session) frame() []byte {
	f := Frame{
		Type:      "unit",
		Index:     s.position,
		Total:     len(s.doc.Prompter),
		Playing:   s.playing,
		Unit:      s.current(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	data, err := json.Marshal(f)
	if err != nil {
		logging.Error("failed to marshal prompter frame", "error", err)
		return nil
	}
	return data
}

// broadcast sends a frame to every connected client, dropping clients
// whose send buffers are full.
func (s *Session) broadcast(message []byte) {
	if message == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for client := range s.clients {
		select {
		case client.send <- message:
		default:
			close(client.send)
			delete(s.clients, client)
		}
	}
}

func (s *Session) clientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// deliver sends a frame to one client without blocking the session loop.
func (c *Client) deliver(message []byte) {
	if message == nil {
		return
	}
	select {
	case c.send <- message:
	default:
	}
}

// readPump reads control messages from the WebSocket connection.
func (c *Client) readPump() {
	defer func() {
		c.session.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Error("websocket unexpected close", "error", err)
			}
			break
		}
		var cmd clientCommand
		if err := json.Unmarshal(data, &cmd); err != nil {
			continue
		}
		select {
		case c.session.commands <- cmd:
		default:
			// Command buffer full; the client is flooding, drop it.
		}
	}
}

// writePump writes frames to the WebSocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Flush any additional queued messages
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// upgrader builds the WebSocket upgrader for this server's origin policy.
func (s *Server) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(s.cfg.AllowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range s.cfg.AllowedOrigins {
				if origin == allowed {
					return true
				}
			}
			return false
		},
	}
}

// handlePrompter upgrades the connection and attaches it to the song's
// prompter session.
func (s *Server) handlePrompter(w http.ResponseWriter, r *http.Request) {
	session, err := s.session(r.Context(), r.PathValue("id"))
	if err != nil {
		respondStoreError(w, err)
		return
	}

	upgrader := s.upgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error("websocket upgrade failed", "error", err)
		return
	}

	client := &Client{
		session: session,
		conn:    conn,
		send:    make(chan []byte, 256),
	}
	session.register <- client

	go client.writePump()
	go client.readPump()
}
