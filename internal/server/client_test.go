package server

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClientNameAndDBIndex(t *testing.T) {
	c := newClient(1, nil)
	require.Equal(t, "", c.Name())
	c.SetName("alice")
	require.Equal(t, "alice", c.Name())

	require.Equal(t, 0, c.DBIndex())
	c.SetDBIndex(3)
	require.Equal(t, 3, c.DBIndex())
}

func TestClientProtoDefaultsAndHello(t *testing.T) {
	c := newClient(1, nil)
	require.Equal(t, 2, c.Proto())
	c.SetProto(3)
	require.Equal(t, 3, c.Proto())
}

func TestClientAuthenticated(t *testing.T) {
	c := newClient(1, nil)
	require.False(t, c.Authenticated())
	c.SetUser(nil)
	require.True(t, c.Authenticated())
}

func TestClientPause(t *testing.T) {
	c := newClient(1, nil)
	require.True(t, c.Paused.IsZero())
	c.Pause(1000)
	require.False(t, c.Paused.IsZero())
	c.Pause(0)
	require.True(t, c.Paused.IsZero())
}

func TestClientInfoReportsDBAndName(t *testing.T) {
	c := newClient(42, nil)
	c.SetName("bob")
	c.SetDBIndex(2)
	c.Touch("PING")

	info := c.Info()
	require.Equal(t, int64(42), info.ID)
	require.Equal(t, "bob", info.Name)
	require.Equal(t, 2, info.DB)
	require.Equal(t, "PING", info.LastCmd)
	require.Equal(t, "", info.Addr)
}

func TestClientReplyMode(t *testing.T) {
	c := newClient(1, nil)
	require.Equal(t, "on", c.ReplyMode())
	c.SetReplyMode("off")
	require.Equal(t, "off", c.ReplyMode())
}
