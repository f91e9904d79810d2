package telemetry

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestBroadcaster_SubscribeAndReceive(t *testing.T) {
	b := NewBroadcaster("session-1")
	ch, unsub := b.Subscribe()
	defer unsub()

	b.AddData("Status", "Initialized all")
	b.Update()

	select {
	case msg := <-ch:
		var evt Event
		if err := json.Unmarshal([]byte(msg), &evt); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if evt.Session != "session-1" {
			t.Errorf("session = %q", evt.Session)
		}
		if v, ok := evt.Get("Status"); !ok || v != "Initialized all" {
			t.Errorf("Status = %q, %v", v, ok)
		}
		if evt.Seq != 1 {
			t.Errorf("seq = %d, want 1", evt.Seq)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for broadcast")
	}
}

func TestBroadcaster_MultipleSubscribers(t *testing.T) {
	b := NewBroadcaster("s")
	ch1, unsub1 := b.Subscribe()
	defer unsub1()
	ch2, unsub2 := b.Subscribe()
	defer unsub2()

	b.Update()

	for i, ch := range []<-chan string{ch1, ch2} {
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d: timeout", i)
		}
	}
}

func TestBroadcaster_UnsubscribeClosesChannel(t *testing.T) {
	b := NewBroadcaster("s")
	ch, unsub := b.Subscribe()
	unsub()

	if _, ok := <-ch; ok {
		t.Error("channel should be closed after unsubscribe")
	}
	// Must not panic on a closed subscriber
	b.Update()
}

func TestBroadcaster_FullChannelDropsMessage(t *testing.T) {
	b := NewBroadcaster("s")
	ch, unsub := b.Subscribe()
	defer unsub()

	for i := 0; i < 100; i++ {
		b.Update()
	}

	count := 0
	for {
		select {
		case <-ch:
			count++
			continue
		default:
		}
		break
	}
	if count != 64 {
		t.Errorf("received %d messages, want buffer size 64", count)
	}
}

func TestServer_HandleLatest(t *testing.T) {
	b := NewBroadcaster("s")
	srv := NewServer(":0", b)

	rec := httptest.NewRecorder()
	srv.Mux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/telemetry", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("status before first update = %d, want 204", rec.Code)
	}

	b.AddData("Current lower linear slide position", int32(-20))
	b.Update()

	rec = httptest.NewRecorder()
	srv.Mux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/telemetry", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var evt Event
	if err := json.Unmarshal(rec.Body.Bytes(), &evt); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v, _ := evt.Get("Current lower linear slide position"); v != "-20" {
		t.Errorf("position = %q, want -20", v)
	}
}

func TestServer_RejectsPost(t *testing.T) {
	srv := NewServer(":0", NewBroadcaster("s"))
	rec := httptest.NewRecorder()
	srv.Mux().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/telemetry", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST status = %d, want 405", rec.Code)
	}
}
