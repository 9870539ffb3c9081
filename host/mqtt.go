/* Copyright 2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package host

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTT serves FrameRequests that arrive on subscribed MQTT topics.
//
// A FrameRequest without a path gets one from the message topic: the
// TopicPrefix is removed and the rest is the path.  The FrameResponse
// is published to the request's ReplyTo or, failing that, to
// ReplyTopic.  With neither, the response is only logged.
type MQTT struct {
	Client mqtt.Client
	Router *Router

	// SubTopics is a comma-separated list of TOPIC or TOPIC:QOS.
	SubTopics string

	TopicPrefix string
	ReplyTopic  string

	// Quiesce is the disconnection quiescence in milliseconds.
	Quiesce uint
}

// Start connects to the broker and subscribes.
func (m *MQTT) Start(ctx context.Context) error {
	log.Printf("Attempting to connected to broker")
	if token := m.Client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("Connected to broker")

	handler := func(client mqtt.Client, msg mqtt.Message) {
		m.inHandler(ctx, msg)
	}

	for _, topic := range strings.Split(m.SubTopics, ",") {
		topic, qos := parseTopic(topic)
		if topic == "" {
			continue
		}
		log.Printf("Subscribing to %s (%d)", topic, qos)
		if t := m.Client.Subscribe(topic, qos, handler); t.Wait() && t.Error() != nil {
			return t.Error()
		}
	}

	return nil
}

// Stop terminates the MQTT session.
func (m *MQTT) Stop(context.Context) error {
	log.Printf("Disconnecting")
	m.Client.Disconnect(m.Quiesce)
	return nil
}

func (m *MQTT) inHandler(ctx context.Context, msg mqtt.Message) {
	m.Router.logf("MQTT incoming %s %s", msg.Topic(), msg.Payload())

	topic, js := m.serve(ctx, msg.Topic(), msg.Payload())
	if topic == "" {
		log.Printf("MQTT no reply topic for %s; dropping %s", msg.Topic(), js)
		return
	}

	topic, qos := parseTopic(topic)
	token := m.Client.Publish(topic, qos, false, js)
	token.Wait()
	if err := token.Error(); err != nil {
		log.Printf("MQTT publish error %s", err)
	}
}

// serve returns the reply topic and the FrameResponse JSON.
func (m *MQTT) serve(ctx context.Context, topic string, payload []byte) (string, []byte) {
	var (
		reply = m.ReplyTopic
		res   *FrameResponse
	)

	f, err := ParseFrame(payload)
	if err == nil {
		if f.ReplyTo != "" {
			reply = f.ReplyTo
		}
		if f.Path == "" {
			f.Path = "/" + strings.TrimPrefix(strings.TrimPrefix(topic, m.TopicPrefix), "/")
		}
		res, err = m.Router.ServeFrame(ctx, f)
	}
	if err != nil {
		res = frameError(http.StatusBadRequest, fmt.Sprintf("can't serve: %v", err))
	}

	js, err := json.Marshal(res)
	if err != nil {
		// Shouldn't happen.
		js = []byte(fmt.Sprintf(`{"status":500,"body":%q}`, err.Error()))
	}
	return reply, js
}

// parseTopic can extract QoS from a topic name of the form TOPIC:QOS.
func parseTopic(s string) (string, byte) {
	s = strings.TrimSpace(s)
	i := strings.LastIndex(s, ":")
	if i < 0 {
		return s, 0
	}
	qos, err := strconv.ParseUint(s[i+1:], 10, 8)
	if err != nil || 2 < qos {
		return s, 0
	}
	return s[:i], byte(qos)
}
