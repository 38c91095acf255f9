package adapters

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speedwagon-io/weatherflux/internal/lib/logger/sl"
)

func TestUDPSource_DeliversDatagrams(t *testing.T) {
	src := NewUDPSource(sl.Discard(), "127.0.0.1:0")
	require.NoError(t, src.Listen())
	defer src.Close()

	received := make(chan string, 2)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- src.Run(ctx, func(payload []byte) {
			received <- string(payload)
		})
	}()

	conn, err := net.Dial("udp", src.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	msg := `{"serial_number":"HB-00000001","type":"hub_status","uptime":10}`
	_, err = conn.Write([]byte(msg))
	require.NoError(t, err)

	select {
	case got := <-received:
		assert.Equal(t, msg, got)
	case <-time.After(2 * time.Second):
		t.Fatal("datagram not delivered")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("run did not stop after cancel")
	}
}

func TestUDPSource_ListenFailure(t *testing.T) {
	first := NewUDPSource(sl.Discard(), "127.0.0.1:0")
	require.NoError(t, first.Listen())
	defer first.Close()

	second := NewUDPSource(sl.Discard(), first.Addr().String())
	assert.Error(t, second.Listen())
}

func TestUDPSource_Defaults(t *testing.T) {
	src := NewUDPSource(sl.Discard(), "")
	assert.Equal(t, DefaultAddress, src.address)
	assert.Equal(t, "udp", src.Name())
	assert.Nil(t, src.Addr())
	assert.NoError(t, src.Close())
}
