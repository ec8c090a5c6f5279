package notify

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/exportai/backend/internal/storage/models"
)

// slowConn records writes and flags any that overlap in time.
type slowConn struct {
	writing int32
	overlap int32
	writes  int32
}

func (c *slowConn) write() error {
	if !atomic.CompareAndSwapInt32(&c.writing, 0, 1) {
		atomic.StoreInt32(&c.overlap, 1)
	}
	time.Sleep(time.Millisecond)
	atomic.AddInt32(&c.writes, 1)
	atomic.StoreInt32(&c.writing, 0)
	return nil
}

func (c *slowConn) WriteJSON(v interface{}) error { return c.write() }

func (c *slowConn) WriteMessage(messageType int, data []byte) error { return c.write() }

func TestRegisterUnregister(t *testing.T) {
	hub := NewHub()

	a := hub.Register(7, &slowConn{})
	b := hub.Register(7, &slowConn{})
	assert.Equal(t, 2, hub.Connections(7))
	assert.Equal(t, 0, hub.Connections(8))

	hub.Unregister(a)
	assert.Equal(t, 1, hub.Connections(7))

	hub.Unregister(b)
	assert.Equal(t, 0, hub.Connections(7))

	// Unregistering an unknown connection is a no-op.
	hub.Unregister(a)
	assert.Equal(t, 0, hub.Connections(7))
}

func TestPushWithoutConnections(t *testing.T) {
	hub := NewHub()

	// No sockets registered, so delivery is silently skipped.
	hub.Push(&models.Notification{UserID: 42, Type: "market_alert"})
	assert.Equal(t, 0, hub.Connections(42))
}

func TestPushDeliversToEachConnection(t *testing.T) {
	hub := NewHub()

	a := &slowConn{}
	b := &slowConn{}
	hub.Register(42, a)
	hub.Register(42, b)

	hub.Push(&models.Notification{UserID: 42, Type: "market_alert"})

	assert.Equal(t, int32(1), atomic.LoadInt32(&a.writes))
	assert.Equal(t, int32(1), atomic.LoadInt32(&b.writes))
}

func TestConcurrentWritesAreSerialized(t *testing.T) {
	hub := NewHub()

	conn := &slowConn{}
	client := hub.Register(42, conn)

	// Pushes race each other and the keepalive ping on one connection.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hub.Push(&models.Notification{UserID: 42, Type: "market_alert"})
		}()
	}
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, client.Ping())
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(0), atomic.LoadInt32(&conn.overlap), "writes overlapped")
	assert.Equal(t, int32(12), atomic.LoadInt32(&conn.writes))
}
