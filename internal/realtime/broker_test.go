package realtime_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/anonto42/friendsbook/backend/internal/models"
	"github.com/anonto42/friendsbook/backend/internal/realtime"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memoryArchive struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (a *memoryArchive) Save(_ context.Context, evt *realtime.Event) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, *evt)
	return nil
}

func (a *memoryArchive) Since(_ context.Context, channel string, since time.Time, limit int) ([]realtime.Event, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []realtime.Event
	for _, e := range a.events {
		if e.Channel == channel && e.At.After(since) && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

type frame struct {
	ID      string          `json:"id"`
	Event   string          `json:"event"`
	Channel string          `json:"channel"`
	Data    json.RawMessage `json:"data"`
}

type testClient struct {
	t        *testing.T
	conn     *websocket.Conn
	socketID string
}

func newBroker(t *testing.T, archive realtime.Archive) (*realtime.Broker, *httptest.Server) {
	t.Helper()
	auth := realtime.NewAuthorizer("test-secret", participants{1: {10, 20}})
	broker := realtime.NewBroker(auth, nil, archive, []string{"*"}, zap.NewNop())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, _ := strconv.ParseUint(r.URL.Query().Get("user"), 10, 64)
		if err := broker.ServeWS(w, r, uint(userID)); err != nil {
			t.Logf("upgrade failed: %v", err)
		}
	}))
	t.Cleanup(srv.Close)
	return broker, srv
}

func connect(t *testing.T, srv *httptest.Server, userID uint) *testClient {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?user=" + strconv.FormatUint(uint64(userID), 10)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	c := &testClient{t: t, conn: conn}
	f := c.read()
	require.Equal(t, realtime.EventConnectionEstablished, f.Event)
	var data map[string]string
	require.NoError(t, json.Unmarshal(f.Data, &data))
	c.socketID = data["socket_id"]
	require.NotEmpty(t, c.socketID)
	return c
}

func (c *testClient) read() frame {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var f frame
	require.NoError(c.t, c.conn.ReadJSON(&f))
	return f
}

func (c *testClient) send(v interface{}) {
	c.t.Helper()
	require.NoError(c.t, c.conn.WriteJSON(v))
}

func (c *testClient) subscribe(broker *realtime.Broker, userID uint, channel, since string) frame {
	c.t.Helper()
	token, err := broker.Authorizer().Authorize(context.Background(), userID, c.socketID, channel)
	require.NoError(c.t, err)
	c.send(map[string]string{"event": "subscribe", "channel": channel, "auth": token, "since": since})
	return c.read()
}

func TestPublishSkipsSenderSocket(t *testing.T) {
	broker, srv := newBroker(t, nil)
	sender := connect(t, srv, 10)
	receiver := connect(t, srv, 20)

	require.Equal(t, realtime.EventSubscriptionSucceeded, sender.subscribe(broker, 10, "conversation:1", "").Event)
	require.Equal(t, realtime.EventSubscriptionSucceeded, receiver.subscribe(broker, 20, "conversation:1", "").Event)
	assert.Equal(t, 2, broker.Hub().Subscribers("conversation:1"))

	msg := &models.MessageWithSender{Message: models.Message{ID: 5, ConversationID: 1, SenderID: 10, Content: "hey"}}
	require.NoError(t, broker.PublishMessage(context.Background(), msg, sender.socketID))

	got := receiver.read()
	assert.Equal(t, realtime.EventNewMessage, got.Event)
	assert.Equal(t, "conversation:1", got.Channel)
	var decoded models.MessageWithSender
	require.NoError(t, json.Unmarshal(got.Data, &decoded))
	assert.Equal(t, uint(5), decoded.ID)
	assert.Equal(t, "hey", decoded.Content)

	// the sender's next frame is the unfiltered follow-up, not its own message
	require.NoError(t, broker.Publish(context.Background(), "conversation:1", "ping-check", nil, ""))
	assert.Equal(t, "ping-check", sender.read().Event)
	assert.Equal(t, "ping-check", receiver.read().Event)
}

func TestSubscribeRequiresMatchingGrant(t *testing.T) {
	broker, srv := newBroker(t, nil)
	c := connect(t, srv, 10)
	intruder := connect(t, srv, 30)

	// grant minted for another socket
	token, err := broker.Authorizer().Authorize(context.Background(), 10, c.socketID, "conversation:1")
	require.NoError(t, err)
	intruder.send(map[string]string{"event": "subscribe", "channel": "conversation:1", "auth": token})
	assert.Equal(t, realtime.EventError, intruder.read().Event)

	c.send(map[string]string{"event": "subscribe", "channel": "conversation:1", "auth": "nope"})
	assert.Equal(t, realtime.EventError, c.read().Event)
	assert.Zero(t, broker.Hub().Subscribers("conversation:1"))
}

func TestClientsCannotPublish(t *testing.T) {
	broker, srv := newBroker(t, nil)
	c := connect(t, srv, 10)
	require.Equal(t, realtime.EventSubscriptionSucceeded, c.subscribe(broker, 10, "conversation:1", "").Event)

	c.send(map[string]string{"event": "new-message", "channel": "conversation:1"})
	f := c.read()
	assert.Equal(t, realtime.EventError, f.Event)

	c.send(map[string]string{"event": "ping"})
	assert.Equal(t, realtime.EventPong, c.read().Event)
}

func TestUnsubscribe(t *testing.T) {
	broker, srv := newBroker(t, nil)
	c := connect(t, srv, 10)
	require.Equal(t, realtime.EventSubscriptionSucceeded, c.subscribe(broker, 10, "user:10", "").Event)
	assert.Equal(t, 1, broker.Hub().Subscribers("user:10"))

	c.send(map[string]string{"event": "unsubscribe", "channel": "user:10"})
	c.send(map[string]string{"event": "ping"})
	require.Equal(t, realtime.EventPong, c.read().Event)
	assert.Zero(t, broker.Hub().Subscribers("user:10"))
}

func TestNotificationPushAndReplay(t *testing.T) {
	archive := &memoryArchive{}
	broker, srv := newBroker(t, archive)
	before := time.Now().UTC().Add(-time.Second)

	n := &models.EnrichedNotification{Notification: models.Notification{ID: 9, RecipientID: 10, ActorID: 20, Type: models.NotificationPostLiked}}
	require.NoError(t, broker.Push(context.Background(), n))

	// a late subscriber catches up from the archive
	c := connect(t, srv, 10)
	require.Equal(t, realtime.EventSubscriptionSucceeded, c.subscribe(broker, 10, "user:10", before.Format(time.RFC3339Nano)).Event)
	replayed := c.read()
	assert.Equal(t, realtime.EventNewNotification, replayed.Event)

	var decoded models.EnrichedNotification
	require.NoError(t, json.Unmarshal(replayed.Data, &decoded))
	assert.Equal(t, uint(9), decoded.ID)

	require.NoError(t, broker.Push(context.Background(), n))
	assert.Equal(t, realtime.EventNewNotification, c.read().Event)
}
