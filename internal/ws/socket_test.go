package ws_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"social-service/internal/auth"
	"social-service/internal/mocks"
	"social-service/internal/models"
	"social-service/internal/ws"
)

const testSecret = "test-secret"

func signToken(t *testing.T, userID string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"_id": userID,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func newSocketServer(t *testing.T, users *mocks.UserRepositoryMock) (*httptest.Server, *ws.Hub) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	hub := ws.NewHub()
	handler := ws.NewSocketHandler(hub, auth.NewVerifier(testSecret, users))
	router := gin.New()
	router.GET("/ws", handler.Handle)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, hub
}

func dial(t *testing.T, server *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	if token != "" {
		url += "?token=" + token
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// waitEvent reads frames until the wanted event arrives or the deadline passes.
func waitEvent(t *testing.T, conn *websocket.Conn, event string) json.RawMessage {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	require.NoError(t, conn.SetReadDeadline(deadline))
	for {
		var f struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		if err := conn.ReadJSON(&f); err != nil {
			t.Fatalf("waiting for %s: %v", event, err)
		}
		if f.Event == event {
			return f.Data
		}
	}
}

func send(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(models.Envelope{Event: event, Data: data}))
}

func TestHandshakeRejectsMissingToken(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	server, hub := newSocketServer(t, users)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.False(t, hub.IsOnline("1"))
}

func TestHandshakeRejectsGarbageToken(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	server, hub := newSocketServer(t, users)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?token=not-a-jwt"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.False(t, hub.IsOnline("1"))
}

func TestHandshakeAcceptsCookieToken(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	users.On("GetUser", mock.Anything, 1).Return(models.User{ID: 1, Username: "alice"}, nil)
	server, hub := newSocketServer(t, users)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	header := http.Header{}
	header.Set("Cookie", "token="+signToken(t, "1"))
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	defer conn.Close()

	waitEvent(t, conn, models.EventOnlineUsers)
	require.True(t, hub.IsOnline("1"))
}

func TestConnectReceivesSnapshotAndPresence(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	users.On("GetUser", mock.Anything, 1).Return(models.User{ID: 1, Username: "alice"}, nil)
	users.On("GetUser", mock.Anything, 2).Return(models.User{ID: 2, Username: "bob"}, nil)
	server, hub := newSocketServer(t, users)

	alice := dial(t, server, signToken(t, "1"))
	waitEvent(t, alice, models.EventOnlineUsers)

	bob := dial(t, server, signToken(t, "2"))
	data := waitEvent(t, bob, models.EventOnlineUsers)
	var snapshot []models.OnlineUser
	require.NoError(t, json.Unmarshal(data, &snapshot))
	require.Len(t, snapshot, 2)

	data = waitEvent(t, alice, models.EventUserOnline)
	var presence models.PresencePayload
	require.NoError(t, json.Unmarshal(data, &presence))
	require.Equal(t, "2", presence.UserID)

	require.NoError(t, bob.Close())
	data = waitEvent(t, alice, models.EventUserOffline)
	require.NoError(t, json.Unmarshal(data, &presence))
	require.Equal(t, "2", presence.UserID)
	require.Eventually(t, func() bool { return !hub.IsOnline("2") }, 3*time.Second, 10*time.Millisecond)
}

func TestTypingRelayedToPeer(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	users.On("GetUser", mock.Anything, 1).Return(models.User{ID: 1, Username: "alice"}, nil)
	users.On("GetUser", mock.Anything, 2).Return(models.User{ID: 2, Username: "bob"}, nil)
	server, _ := newSocketServer(t, users)

	alice := dial(t, server, signToken(t, "1"))
	waitEvent(t, alice, models.EventOnlineUsers)
	bob := dial(t, server, signToken(t, "2"))
	waitEvent(t, bob, models.EventOnlineUsers)

	room := ws.PairwiseRoom("1", "2")
	send(t, alice, models.ClientJoinRoom, room)
	send(t, bob, models.ClientJoinRoom, room)
	// No join ack exists; give the server a moment to process both joins.
	time.Sleep(200 * time.Millisecond)

	send(t, alice, models.ClientTyping, models.TypingRequest{ReceiverID: "2", IsTyping: true})

	data := waitEvent(t, bob, models.EventUserTyping)
	var typing models.TypingPayload
	require.NoError(t, json.Unmarshal(data, &typing))
	require.Equal(t, "1", typing.SenderID)
	require.True(t, typing.IsTyping)
	require.Equal(t, "alice", typing.Username)
}

func TestEphemeralMessageRelay(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	users.On("GetUser", mock.Anything, 1).Return(models.User{ID: 1, Username: "alice"}, nil)
	users.On("GetUser", mock.Anything, 2).Return(models.User{ID: 2, Username: "bob"}, nil)
	server, _ := newSocketServer(t, users)

	alice := dial(t, server, signToken(t, "1"))
	waitEvent(t, alice, models.EventOnlineUsers)
	bob := dial(t, server, signToken(t, "2"))
	waitEvent(t, bob, models.EventOnlineUsers)

	room := ws.PairwiseRoom("1", "2")
	send(t, alice, models.ClientJoinRoom, room)
	send(t, bob, models.ClientJoinRoom, room)
	time.Sleep(200 * time.Millisecond)

	send(t, alice, models.ClientSendMessage, models.SendMessageRequest{ReceiverID: "2", Message: "hello"})

	data := waitEvent(t, bob, models.EventNewMessage)
	var msg models.MessagePayload
	require.NoError(t, json.Unmarshal(data, &msg))
	require.Equal(t, "1", msg.SenderID)
	require.Equal(t, "hello", msg.Message)
	require.Equal(t, "alice", msg.Sender.Username)
}

func TestUnknownEventReturnsError(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	users.On("GetUser", mock.Anything, 1).Return(models.User{ID: 1, Username: "alice"}, nil)
	server, _ := newSocketServer(t, users)

	alice := dial(t, server, signToken(t, "1"))
	waitEvent(t, alice, models.EventOnlineUsers)

	send(t, alice, "selfDestruct", nil)

	data := waitEvent(t, alice, models.EventMessageError)
	var errPayload models.ErrorPayload
	require.NoError(t, json.Unmarshal(data, &errPayload))
	require.Contains(t, errPayload.Error, "unknown event")
}
