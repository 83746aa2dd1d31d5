package client

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/harshbpathak/zk-battleship/wire"
)

// Client binds a Machine to a live relay connection for a UI layer. The
// machine itself stays single-threaded: every touch, whether from the
// read loop or from a local action, goes through one mutex.
type Client struct {
	mu      sync.Mutex
	machine *Machine
	conn    *websocket.Conn
}

func Dial(ctx context.Context, url string, prover Prover, ledger Ledger) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return &Client{machine: NewMachine(prover, ledger), conn: conn}, nil
}

// Run pumps relay frames into the machine until the connection drops.
func (c *Client) Run() error {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return err
		}
		var frame wire.ServerFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			log.Warn().Err(err).Msg("dropping unparseable relay frame")
			continue
		}

		c.mu.Lock()
		replies, err := c.machine.OnMessage(frame)
		if err != nil {
			log.Warn().Err(err).Str("type", frame.Type).Msg("frame rejected")
		}
		for _, reply := range replies {
			c.writeLocked(reply)
		}
		c.mu.Unlock()
	}
}

func (c *Client) writeLocked(frame any) {
	if err := c.conn.WriteMessage(websocket.TextMessage, wire.Encode(frame)); err != nil {
		log.Warn().Err(err).Msg("relay send failed")
	}
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.machine.Phase()
}

func (c *Client) Connected(address string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.machine.Connected(address)
}

func (c *Client) CreateRoom() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	frame, err := c.machine.CreateRoom()
	if err != nil {
		return err
	}
	c.writeLocked(frame)
	return nil
}

func (c *Client) JoinRoom(code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	frame, err := c.machine.JoinRoom(code)
	if err != nil {
		return err
	}
	c.writeLocked(frame)
	return nil
}

func (c *Client) RejoinRoom() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	frame, err := c.machine.RejoinRoom()
	if err != nil {
		return err
	}
	c.writeLocked(frame)
	return nil
}

func (c *Client) PlaceShip(x, y, length int, horizontal bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.machine.PlaceShip(x, y, length, horizontal)
}

func (c *Client) CommitFleet() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	frame, err := c.machine.CommitFleet()
	if err != nil {
		return err
	}
	c.writeLocked(frame)
	return nil
}

func (c *Client) Fire(x, y int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	frame, err := c.machine.Fire(x, y)
	if err != nil {
		return err
	}
	c.writeLocked(frame)
	return nil
}

// Concede tells the relay the game is over; the opponent receives
// opponent_wins.
func (c *Client) Concede() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writeLocked(wire.GameOver{Type: wire.TypeGameOver})
	return nil
}
