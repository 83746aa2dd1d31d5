package relay

import (
	"strings"
	"time"

	"github.com/stretchr/testify/mock"
)

// --- NetworkSession ---

type MockNetworkSession struct {
	mock.Mock
}

func (m *MockNetworkSession) Close(reason string) {
	m.Called(reason)
}

func (m *MockNetworkSession) Write(data []byte) error {
	args := m.Called(data)
	return args.Error(0)
}

func (m *MockNetworkSession) Read() ([]byte, error) {
	args := m.Called()
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockNetworkSession) Ping() error {
	args := m.Called()
	return args.Error(0)
}

// --- PeriodicTickerChannelCreator ---

type MockTickerCreator struct {
	mock.Mock
}

func (m *MockTickerCreator) Create(duration time.Duration) <-chan time.Time {
	args := m.Called(duration)
	return args.Get(0).(chan time.Time)
}

// --- TokenManager ---

// stubTokens is a transparent token codec so tests can mint and pick
// apart rejoin tokens without real signing.
type stubTokens struct{}

func (stubTokens) Generate(playerID, roomCode string) string {
	return playerID + "|" + roomCode
}

func (stubTokens) Verify(token string) (string, string, error) {
	playerID, roomCode, ok := strings.Cut(token, "|")
	if !ok || playerID == "" || roomCode == "" {
		return "", "", ErrInvalidToken
	}
	return playerID, roomCode, nil
}
