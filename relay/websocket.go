package relay

import (
	"time"

	"github.com/gorilla/websocket"
)

type websocketSession struct {
	socket *websocket.Conn
}

func (ws *websocketSession) Write(data []byte) error {
	return ws.socket.WriteMessage(websocket.TextMessage, data)
}

func (ws *websocketSession) Ping() error {
	return ws.socket.WriteMessage(websocket.PingMessage, nil)
}

func (ws *websocketSession) Read() ([]byte, error) {
	_, p, err := ws.socket.ReadMessage()
	return p, err
}

func (ws *websocketSession) Close(reason string) {
	ws.socket.SetWriteDeadline(time.Now().Add(time.Second * 20))
	ws.socket.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason))
	ws.socket.Close()
}

func NewWebsocketSession(conn *websocket.Conn) *websocketSession {
	conn.SetPongHandler(func(appData string) error {
		conn.SetReadDeadline(time.Now().Add(time.Minute))
		return nil
	})
	return &websocketSession{conn}
}
