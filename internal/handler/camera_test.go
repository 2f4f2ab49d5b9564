package handler

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type frameSink struct {
	mu     sync.Mutex
	frames map[string][][]byte
	got    chan struct{}
}

func (s *frameSink) HandleCameraImage(image []byte, camera string) {
	s.mu.Lock()
	s.frames[camera] = append(s.frames[camera], image)
	s.mu.Unlock()
	s.got <- struct{}{}
}

func TestServeCameraPackets_ReassemblesFrames(t *testing.T) {
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	sink := &frameSink{frames: map[string][][]byte{}, got: make(chan struct{}, 4)}
	l := newTestLogger(t)
	done := make(chan struct{})
	go func() {
		ServeCameraPackets(conn, sink, l, map[string]string{"127.0.0.1": "line_cam"})
		close(done)
	}()

	client, err := net.Dial("udp", conn.LocalAddr().String())
	require.NoError(t, err)
	defer client.Close()

	packets := [][]byte{
		{0xFF, 0xD8, 0x01, 0x02},
		{0x03, 0x04},
		{0x05, 0xFF, 0xD9},
	}
	for _, p := range packets {
		_, err := client.Write(p)
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case <-sink.got:
	case <-time.After(2 * time.Second):
		t.Fatal("frame was not delivered")
	}

	require.NoError(t, conn.Close())
	<-done

	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.Len(t, sink.frames["line_cam"], 1)
	assert.Equal(t, []byte{0xFF, 0xD8, 0x01, 0x02, 0x03, 0x04, 0x05, 0xFF, 0xD9}, sink.frames["line_cam"][0])
}
