package lineconn

import (
	"bufio"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startListener returns a loopback listener and a channel delivering the
// first accepted connection.
func startListener(t *testing.T) (net.Listener, <-chan net.Conn) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		accepted <- conn
	}()

	return ln, accepted
}

func dial(t *testing.T, ln net.Listener, accepted <-chan net.Conn) (*Conn, net.Conn) {
	t.Helper()

	c := New(DefaultConfig(ln.Addr().String()))
	require.NoError(t, c.Connect())
	t.Cleanup(func() { _ = c.Close() })

	select {
	case peer := <-accepted:
		t.Cleanup(func() { _ = peer.Close() })
		return c, peer
	case <-time.After(2 * time.Second):
		t.Fatal("no connection accepted")
		return nil, nil
	}
}

func TestConnect(t *testing.T) {
	t.Run("succeeds against a live listener", func(t *testing.T) {
		ln, accepted := startListener(t)
		c, _ := dial(t, ln, accepted)
		assert.True(t, c.Connected())
	})

	t.Run("refused dial leaves conn unconnected", func(t *testing.T) {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		addr := ln.Addr().String()
		require.NoError(t, ln.Close())

		c := New(Config{Address: addr, DialTimeout: time.Second})
		err = c.Connect()

		var ce *ConnectError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, addr, ce.Address)
		assert.False(t, c.Connected())
	})

	t.Run("send after failed connect returns ErrNotConnected", func(t *testing.T) {
		c := New(Config{Address: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond})
		_ = c.Connect()

		err := c.Send("hello")
		assert.ErrorIs(t, err, ErrNotConnected)
	})

	t.Run("connecting twice returns ErrAlreadyConnected", func(t *testing.T) {
		ln, accepted := startListener(t)
		c, _ := dial(t, ln, accepted)
		assert.ErrorIs(t, c.Connect(), ErrAlreadyConnected)
	})
}

func TestSend(t *testing.T) {
	t.Run("lines arrive in order without terminators", func(t *testing.T) {
		ln, accepted := startListener(t)
		c, peer := dial(t, ln, accepted)

		lines := []string{"alpha", "beta", `{"moving":"up"}`}
		for _, l := range lines {
			require.NoError(t, c.Send(l))
		}

		r := bufio.NewReader(peer)
		for _, want := range lines {
			got, err := r.ReadString('\n')
			require.NoError(t, err)
			assert.Equal(t, want+"\n", got)
		}
	})

	t.Run("rejects embedded newline", func(t *testing.T) {
		ln, accepted := startListener(t)
		c, _ := dial(t, ln, accepted)

		assert.ErrorIs(t, c.Send("two\nlines"), ErrEmbeddedNewline)
	})

	t.Run("send after close returns ErrNotConnected", func(t *testing.T) {
		ln, accepted := startListener(t)
		c, _ := dial(t, ln, accepted)

		require.NoError(t, c.Close())
		assert.ErrorIs(t, c.Send("late"), ErrNotConnected)
	})
}

func TestReadLine(t *testing.T) {
	t.Run("returns peer lines in order", func(t *testing.T) {
		ln, accepted := startListener(t)
		c, peer := dial(t, ln, accepted)

		_, err := peer.Write([]byte("7\n{\"snake\":{}}\nlast\n"))
		require.NoError(t, err)

		for _, want := range []string{"7", `{"snake":{}}`, "last"} {
			got, err := c.ReadLine()
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
	})

	t.Run("empty line is no message, not an error", func(t *testing.T) {
		ln, accepted := startListener(t)
		c, peer := dial(t, ln, accepted)

		_, err := peer.Write([]byte("\nnext\n"))
		require.NoError(t, err)

		got, err := c.ReadLine()
		require.NoError(t, err)
		assert.Equal(t, "", got)

		got, err = c.ReadLine()
		require.NoError(t, err)
		assert.Equal(t, "next", got)
	})

	t.Run("peer close surfaces as ReadError and disconnects", func(t *testing.T) {
		ln, accepted := startListener(t)
		c, peer := dial(t, ln, accepted)

		require.NoError(t, peer.Close())

		_, err := c.ReadLine()
		var re *ReadError
		require.ErrorAs(t, err, &re)
		assert.True(t, errors.Is(re.Err, io.EOF))
		assert.False(t, c.Connected())
	})

	t.Run("close unblocks a pending read", func(t *testing.T) {
		ln, accepted := startListener(t)
		c, _ := dial(t, ln, accepted)

		done := make(chan error, 1)
		go func() {
			_, err := c.ReadLine()
			done <- err
		}()

		time.Sleep(50 * time.Millisecond)
		require.NoError(t, c.Close())

		select {
		case err := <-done:
			assert.Error(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("read did not unblock after close")
		}
	})
}

func TestClose(t *testing.T) {
	t.Run("idempotent after connect", func(t *testing.T) {
		ln, accepted := startListener(t)
		c, _ := dial(t, ln, accepted)

		assert.NoError(t, c.Close())
		assert.NoError(t, c.Close())
		assert.False(t, c.Connected())
	})

	t.Run("safe before any connect", func(t *testing.T) {
		c := New(DefaultConfig("127.0.0.1:1"))
		assert.NoError(t, c.Close())
		assert.NoError(t, c.Close())
		assert.False(t, c.Connected())
	})
}

func TestAdopt(t *testing.T) {
	ln, accepted := startListener(t)

	nc, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { _ = nc.Close() })

	peer := <-accepted
	t.Cleanup(func() { _ = peer.Close() })

	c := Adopt(peer)
	t.Cleanup(func() { _ = c.Close() })

	assert.True(t, c.Connected())
	require.NoError(t, c.Send("welcome"))

	got, err := bufio.NewReader(nc).ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "welcome\n", got)
}
