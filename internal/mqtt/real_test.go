package mqtt

import (
	"errors"
	"strings"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

type doneToken struct{}

func (doneToken) Wait() bool                     { return true }
func (doneToken) WaitTimeout(time.Duration) bool { return true }
func (doneToken) Error() error                   { return nil }

func (doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

// recordingClient records publishes in order. onPublish, if set, runs
// once after the first publish is recorded.
type recordingClient struct {
	paho.Client
	topics    []string
	onPublish func()
}

func (c *recordingClient) Publish(topic string, _ byte, _ bool, _ interface{}) paho.Token {
	c.topics = append(c.topics, topic)
	if f := c.onPublish; f != nil {
		c.onPublish = nil
		f()
	}
	return doneToken{}
}

func (c *recordingClient) Subscribe(string, byte, paho.MessageHandler) paho.Token {
	return doneToken{}
}

func newTestPublisher(c paho.Client) *RealPublisher {
	return &RealPublisher{
		client:   c,
		topics:   NewTopics("panel"),
		commands: make(chan Command, 8),
		buffer:   newRingBuffer(8),
	}
}

func TestFlushKeepsOrderWithConcurrentSend(t *testing.T) {
	c := &recordingClient{}
	p := newTestPublisher(c)
	ts := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	for _, key := range []string{"a", "b"} {
		if err := p.PublishSetting(Setting{Timestamp: ts, Key: key, Value: 1}); err != nil {
			t.Fatal(err)
		}
	}
	if len(c.topics) != 0 {
		t.Fatalf("published while disconnected: %v", c.topics)
	}

	// The run loop sends while the buffer is being flushed.
	c.onPublish = func() {
		if err := p.PublishSetting(Setting{Timestamp: ts, Key: "late", Value: 1}); err != nil {
			t.Error(err)
		}
	}
	p.onConnect(c)

	got := strings.Join(c.topics, " ")
	want := "panel/settings/a panel/settings/b panel/settings/late"
	if got != want {
		t.Errorf("publish order:\n got %s\nwant %s", got, want)
	}
	if p.buffer.len() != 0 {
		t.Errorf("buffer not empty: %d", p.buffer.len())
	}

	if err := p.PublishSetting(Setting{Timestamp: ts, Key: "after", Value: 1}); err != nil {
		t.Fatal(err)
	}
	if last := c.topics[len(c.topics)-1]; last != "panel/settings/after" {
		t.Errorf("send after flush: got %s", last)
	}
}

func TestReconnectPublishesEventBeforeBuffer(t *testing.T) {
	c := &recordingClient{}
	p := newTestPublisher(c)
	p.onConnect(c)
	p.onConnectionLost(c, errors.New("EOF"))

	ts := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	if err := p.PublishSetting(Setting{Timestamp: ts, Key: "a", Value: 1}); err != nil {
		t.Fatal(err)
	}
	p.onConnect(c)

	got := strings.Join(c.topics, " ")
	if want := "panel/system panel/settings/a"; got != want {
		t.Errorf("publish order: got %s, want %s", got, want)
	}
}
