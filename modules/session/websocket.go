package session

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMessage = 4096
)

// WebSocket upgrader
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// 개발용 - 모든 origin 허용
		return true
	},
}

// 연결된 클라이언트 정보
type Client struct {
	conn      *websocket.Conn
	sessionId string
	userId    string
	send      chan []byte
}

// HandleWebSocket - GET /ws?session=<id>&user=<id>
func (sm *Manager) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionId := r.URL.Query().Get("session")
	userId := r.URL.Query().Get("user")

	if sessionId == "" || userId == "" {
		log.Printf("Missing session or user parameter")
		http.Error(w, "session and user parameters are required", http.StatusBadRequest)
		return
	}

	session, ok := sm.Get(sessionId)
	if !ok {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		conn:      conn,
		sessionId: sessionId,
		userId:    userId,
		send:      make(chan []byte, 256),
	}

	log.Printf("🔍 New WebSocket connection - Session: %s, User: %s", sessionId, userId)

	session.addClient(client)
	sm.RecordConnection()

	// 접속 직후 현재 상태 전송
	snap := session.ctrl.Snapshot()
	session.sendTo(client, Message{Type: MsgTypeState, SessionId: sessionId, State: &snap})

	go client.writePump()
	go client.readPump(sm, session)
}

// 클라이언트로부터 메시지 읽기
func (c *Client) readPump(sm *Manager, session *Session) {
	defer func() {
		session.removeClient(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessage)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var message Message
		err := c.conn.ReadJSON(&message)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}
		session.Touch()

		switch message.Type {
		case MsgTypeGenerate:
			log.Printf("🎨 User %s requested generation in session %s", c.userId, c.sessionId)
			started, snap := session.ctrl.Generate()
			if started {
				sm.RecordGeneration()
			} else {
				// 시작되지 않으면 상태 변경이 없으므로 요청자에게만 응답
				session.sendTo(c, Message{Type: MsgTypeState, SessionId: c.sessionId, State: &snap, Started: &started})
			}

		case MsgTypeRequestState:
			snap := session.ctrl.Snapshot()
			session.sendTo(c, Message{Type: MsgTypeState, SessionId: c.sessionId, State: &snap})

		default:
			session.sendTo(c, Message{Type: MsgTypeError, SessionId: c.sessionId, Error: "unknown message type: " + message.Type})
		}
	}
}

// 클라이언트로 메시지 쓰기
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("WebSocket write error: %v", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
