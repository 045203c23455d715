package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/battlesnakeio/arcade/leaderboard"
	"github.com/battlesnakeio/arcade/rules"
	"github.com/battlesnakeio/arcade/worker"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	log "github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// latest is a mailbox holding only the newest value. A slow socket skips
// intermediate frames and top lists instead of blocking the producer.
type latest struct {
	c chan interface{}
}

func newLatest() *latest {
	return &latest{c: make(chan interface{}, 1)}
}

// put replaces any undelivered value. It must only be called from one
// goroutine at a time.
func (l *latest) put(v interface{}) {
	select {
	case <-l.c:
	default:
	}
	l.c <- v
}

// writePump sends values from the mailbox as JSON and keeps the connection
// alive with pings until done is closed or a write fails.
func writePump(conn *websocket.Conn, box *latest, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case <-done:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case v := <-box.c:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(v); err != nil {
				log.WithError(err).Debug("websocket write failed")
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump calls handle with every message until the peer goes away.
func readPump(conn *websocket.Conn, handle func([]byte)) {
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithError(err).Warn("websocket closed unexpectedly")
			}
			return
		}
		if handle != nil {
			handle(message)
		}
	}
}

// handleLiveScores streams the top list until the socket closes.
func (s *Server) handleLiveScores(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	box := newLatest()
	done := make(chan struct{})
	unsubscribe, err := s.board.SubscribeTopScores(func(records []leaderboard.Record) {
		if records == nil {
			records = []leaderboard.Record{}
		}
		box.put(records)
	})
	if err != nil {
		log.WithError(err).Error("unable to subscribe to top scores")
		conn.Close()
		return
	}
	defer unsubscribe()

	go writePump(conn, box, done)
	readPump(conn, nil)
	close(done)
}

// clientMessage is sent by the browser during a game.
type clientMessage struct {
	Type string `json:"type"`
	Key  string `json:"key,omitempty"`
	Name string `json:"name,omitempty"`
}

// Message types a client can send over /play.
const (
	MessageKey     = "key"
	MessageRestart = "restart"
	MessageSubmit  = "submit"
)

// handlePlay runs one game session for the lifetime of the socket.
func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	box := newLatest()
	done := make(chan struct{})
	session := worker.NewSession(s.board, func(f rules.Frame) { box.put(f) }, s.SessionOptions...)
	session.TickInterval = s.TickInterval

	ctx, cancel := context.WithCancel(context.Background())
	go session.Run(ctx)
	go writePump(conn, box, done)

	readPump(conn, func(message []byte) {
		msg := clientMessage{}
		if err := json.Unmarshal(message, &msg); err != nil {
			log.WithError(err).WithField("session", session.ID).Debug("invalid message")
			return
		}
		switch msg.Type {
		case MessageKey:
			session.Key(msg.Key)
		case MessageRestart:
			session.Restart()
		case MessageSubmit:
			if !session.Submit(msg.Name) {
				log.WithField("session", session.ID).Debug("submit ignored")
			}
		default:
			log.WithField("type", msg.Type).Debug("unknown message type")
		}
	})

	close(done)
	cancel()
	session.Close()
}
