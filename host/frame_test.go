package host

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
)

func TestServeFrame(t *testing.T) {
	rr := testRouter(t)

	res, err := rr.ServeFrame(context.Background(), &FrameRequest{
		Id:     "1",
		Path:   "/hello",
		Params: map[string]string{"who": "homer"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Id != "1" || res.Status != http.StatusOK {
		t.Fatalf("got %#v", res)
	}
	if res.Body != "hello homer" {
		t.Fatalf("body %q", res.Body)
	}
	if res.ContentType != "text/plain; charset=UTF-8" {
		t.Fatalf("content type %q", res.ContentType)
	}

	if res, err = rr.ServeFrame(context.Background(), &FrameRequest{Path: "/nope"}); err != nil {
		t.Fatal(err)
	}
	if res.Status != http.StatusNotFound {
		t.Fatalf("status %d", res.Status)
	}
}

func TestWebSocketHandler(t *testing.T) {
	s := httptest.NewServer(testRouter(t).WebSocketHandler())
	defer s.Close()

	c, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(s.URL, "http"), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	roundTrip := func(msg string) *FrameResponse {
		if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			t.Fatal(err)
		}
		_, js, err := c.ReadMessage()
		if err != nil {
			t.Fatal(err)
		}
		var res FrameResponse
		if err = json.Unmarshal(js, &res); err != nil {
			t.Fatal(err)
		}
		return &res
	}

	res := roundTrip(`{"id":"a","path":"/page.html"}`)
	if res.Id != "a" || res.Body != "<div>app/fragment /fragment.json</div>" {
		t.Fatalf("got %#v", res)
	}

	res = roundTrip(`{"id":"b","path":"/broken.html"}`)
	if res.Status != http.StatusInternalServerError || !strings.Contains(res.Body, "syntax error") {
		t.Fatalf("got %#v", res)
	}

	res = roundTrip(`not json`)
	if res.Status != http.StatusBadRequest {
		t.Fatalf("got %#v", res)
	}
}

func TestMQTTServe(t *testing.T) {
	m := &MQTT{
		Router:      testRouter(t),
		TopicPrefix: "site",
		ReplyTopic:  "site/out",
	}

	topic, js := m.serve(context.Background(), "site/hello", []byte(`{"params":{"who":"marge"}}`))
	if topic != "site/out" {
		t.Fatalf("topic %q", topic)
	}
	var res FrameResponse
	if err := json.Unmarshal(js, &res); err != nil {
		t.Fatal(err)
	}
	if res.Body != "hello marge" {
		t.Fatalf("got %s", js)
	}

	topic, _ = m.serve(context.Background(), "site/x", []byte(`{"path":"/hello","replyTo":"me:1"}`))
	if topic != "me:1" {
		t.Fatalf("topic %q", topic)
	}
}

func TestParseTopic(t *testing.T) {
	for _, c := range []struct {
		in    string
		topic string
		qos   byte
	}{
		{"site/in", "site/in", 0},
		{"site/in:1", "site/in", 1},
		{"site/#:2", "site/#", 2},
		{"site/in:9", "site/in:9", 0},
		{"", "", 0},
	} {
		topic, qos := parseTopic(c.in)
		if topic != c.topic || qos != c.qos {
			t.Fatalf("%q: got %q %d", c.in, topic, qos)
		}
	}
}
