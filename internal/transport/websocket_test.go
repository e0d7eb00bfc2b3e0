package transport

import (
	"fmt"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"audiovis/internal/analyzer"
)

func TestWebSocketBroadcast(t *testing.T) {
	ws, err := NewWebSocket("127.0.0.1:0")
	if err != nil {
		t.Fatalf("NewWebSocket: %v", err)
	}
	defer ws.Close()

	url := fmt.Sprintf("ws://%s/spectrum", ws.Addr())
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	want := testSnapshot()
	// The client registers asynchronously after the upgrade; keep sending
	// until a frame arrives.
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var got analyzer.Snapshot
	received := make(chan error, 1)
	go func() {
		received <- conn.ReadJSON(&got)
	}()

	deadline := time.After(5 * time.Second)
	for {
		if err := ws.Send(want); err != nil {
			t.Fatalf("Send: %v", err)
		}
		select {
		case err := <-received:
			if err != nil {
				t.Fatalf("ReadJSON: %v", err)
			}
			if len(got.Magnitudes) != len(want.Magnitudes) {
				t.Fatalf("got %d bands, expected %d", len(got.Magnitudes), len(want.Magnitudes))
			}
			if got.RMS != want.RMS {
				t.Errorf("RMS = %f, expected %f", got.RMS, want.RMS)
			}
			return
		case <-deadline:
			t.Fatal("no frame received before deadline")
		case <-time.After(20 * time.Millisecond):
			// Retry; the client may not have been registered yet.
		}
	}
}

func TestWebSocketSendWithoutClients(t *testing.T) {
	ws, err := NewWebSocket("127.0.0.1:0")
	if err != nil {
		t.Fatalf("NewWebSocket: %v", err)
	}
	defer ws.Close()

	// Sending into an empty hub must neither block nor error, even past the
	// queue depth.
	for range 1000 {
		if err := ws.Send(testSnapshot()); err != nil {
			t.Fatalf("Send: %v", err)
		}
	}
}
