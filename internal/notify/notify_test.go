package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestBrokerNotify(t *testing.T) {
	b := NewBroker()
	admin := b.Subscribe(ChannelAdmin)
	team := b.Subscribe(TeamChannel("t1"))
	defer b.Unsubscribe(ChannelAdmin, admin)
	defer b.Unsubscribe(TeamChannel("t1"), team)

	err := b.Notify(context.Background(), ChannelAdmin, Message{
		Type:    TypeSubmissionCreated,
		Payload: map[string]string{"id": "s1"},
	})
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}

	select {
	case data := <-admin:
		var got struct {
			Type    string            `json:"type"`
			Payload map[string]string `json:"payload"`
		}
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("decoding: %v", err)
		}
		if got.Type != TypeSubmissionCreated || got.Payload["id"] != "s1" {
			t.Errorf("got %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("admin subscriber got nothing")
	}

	select {
	case data := <-team:
		t.Errorf("team subscriber got %s", data)
	default:
	}
}

func TestBrokerDropsForSlowSubscriber(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe("x")

	for i := 0; i < 100; i++ {
		b.Publish("x", []byte("m"))
	}
	if len(ch) != cap(ch) {
		t.Errorf("buffered %d, want %d", len(ch), cap(ch))
	}

	b.Unsubscribe("x", ch)
	if n := b.Subscribers("x"); n != 0 {
		t.Errorf("subscribers = %d, want 0", n)
	}
}

func TestChannelNames(t *testing.T) {
	if got := TeamChannel("42"); got != "team:42" {
		t.Errorf("TeamChannel = %q", got)
	}
	if got := PlayerChannel("abc"); got != "player:abc" {
		t.Errorf("PlayerChannel = %q", got)
	}
}

func TestRedisPublisherUnreachable(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := NewRedisPublisher(rdb).Notify(ctx, ChannelAdmin, Message{Type: TypePointsUpdated}); err == nil {
		t.Error("Notify succeeded without a Redis server")
	}
	if err := NewRedisChecker(rdb).Check(ctx); err == nil {
		t.Error("Check succeeded without a Redis server")
	}
}
