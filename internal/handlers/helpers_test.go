package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"social-service/internal/models"
)

type emit struct {
	target string
	event  string
	data   any
}

// hubRecorder stands in for the websocket hub and captures fan-out calls.
type hubRecorder struct {
	rooms      []emit
	users      []emit
	broadcasts []emit
}

func (r *hubRecorder) EmitToRoom(room, event string, data any) {
	r.rooms = append(r.rooms, emit{target: room, event: event, data: data})
}

func (r *hubRecorder) EmitToUser(userID, event string, data any) {
	r.users = append(r.users, emit{target: userID, event: event, data: data})
}

func (r *hubRecorder) Broadcast(event string, data any) {
	r.broadcasts = append(r.broadcasts, emit{event: event, data: data})
}

// panickingHub simulates a fan-out layer that blows up mid-delivery.
type panickingHub struct{}

func (panickingHub) EmitToRoom(string, string, any) { panic("delivery failed") }
func (panickingHub) EmitToUser(string, string, any) { panic("delivery failed") }
func (panickingHub) Broadcast(string, any)          { panic("delivery failed") }

// authAs injects an authenticated user the way the auth middleware would.
func authAs(user models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", user.ID)
		c.Set("user", user)
		c.Next()
	}
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func jsonBody(t *testing.T, v any) *bytes.Reader {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(raw)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}
