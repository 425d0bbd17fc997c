package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFeedServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	handler := NewHandler(hub, nil, zerolog.Nop())
	router := gin.New()
	router.GET("/ws", func(c *gin.Context) {
		c.Set("userID", int64(1))
		c.Next()
	}, handler.HandleConnection)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func TestHub_BroadcastsEventsToClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(zerolog.Nop())
	go hub.Run(ctx)

	srv := newFeedServer(t, hub)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.Publish(Event{Type: EventContentPending, EntityID: 9, Title: "Lecture notes", ActorID: 3})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var got Event
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, EventContentPending, got.Type)
	assert.Equal(t, int64(9), got.EntityID)
	assert.Equal(t, "Lecture notes", got.Title)
	assert.False(t, got.Timestamp.IsZero())
}

func TestHub_UnregistersOnDisconnect(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(zerolog.Nop())
	go hub.Run(ctx)

	srv := newFeedServer(t, hub)
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)
	conn.Close()
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_PublishNeverBlocks(t *testing.T) {
	hub := NewHub(zerolog.Nop())

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			hub.Publish(Event{Type: EventComplaintCreated, EntityID: int64(i)})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked without a running hub")
	}
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"http://localhost:3000"})

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	assert.True(t, check(req))

	req.Header.Set("Origin", "http://localhost:3000")
	assert.True(t, check(req))

	req.Header.Set("Origin", "http://evil.example")
	assert.False(t, check(req))

	assert.True(t, originChecker([]string{"*"})(req))
}

type countingPublisher struct{ events []Event }

func (c *countingPublisher) Publish(e Event) { c.events = append(c.events, e) }

func TestMultiPublisher(t *testing.T) {
	a, b := &countingPublisher{}, &countingPublisher{}
	p := MultiPublisher(a, nil, b)

	p.Publish(Event{Type: EventComplaintAssigned, EntityID: 4})

	require.Len(t, a.events, 1)
	require.Len(t, b.events, 1)
	assert.Equal(t, int64(4), b.events[0].EntityID)
}
