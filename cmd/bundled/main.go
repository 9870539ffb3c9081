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

// Package main is an HTTP server that serves bundled scripts.
//
// Bundles come from a directory of manifests (-b), from a BoltDB
// file (-p), or both.  When both are given, the manifests are stored
// before serving.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/Comcast/bundled/bundle"
	"github.com/Comcast/bundled/bundle/storage"
	"github.com/Comcast/bundled/bundle/storage/bolt"
	"github.com/Comcast/bundled/host"
	"github.com/Comcast/bundled/interpreters"
	"github.com/Comcast/bundled/interpreters/goja"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

func init() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.LUTC)
}

func main() {

	var (
		httpPort  = flag.String("h", ":8080", "HTTP service port")
		bundleDir = flag.String("b", "", "directory of bundle manifests")
		storeFile = flag.String("p", "", "optional BoltDB filename for bundles")
		libDir    = flag.String("i", ".", "directory for goja libraries")
		timeout   = flag.Duration("timeout", 0, "bound for each request (0 for none)")
		debug     = flag.Bool("debug", false, "verbose logging")
		wsPath    = flag.String("ws", "", "optional path for the WebSocket service")

		broker      = flag.String("mqtt", "", "optional MQTT broker (e.g. tcp://localhost:1883)")
		clientId    = flag.String("mqtt-id", "bundled", "MQTT client id")
		subTopics   = flag.String("mqtt-sub", "bundled/in/#", "MQTT subscription topic(s)")
		topicPrefix = flag.String("mqtt-prefix", "bundled/in", "MQTT topic prefix to remove to get a path")
		replyTopic  = flag.String("mqtt-reply", "bundled/out", "default MQTT reply topic")
	)

	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bs, err := loadBundles(ctx, *bundleDir, *storeFile, *debug)
	if err != nil {
		log.Fatalf("loading bundles: %s", err)
	}

	is := interpreters.Standard()
	if g, ok := interpreters.Goja(is); ok {
		g.LibraryProvider = goja.MakeFileLibraryProvider(*libDir)
	}

	ws, err := bundle.Wire(ctx, is, bs...)
	if err != nil {
		log.Fatalf("wiring: %s", err)
	}

	router := host.NewRouter()
	router.Timeout = *timeout
	router.Debug = *debug

	for _, w := range ws {
		if w.Script.Path == "" {
			continue
		}
		route := &host.Route{
			Path:         w.Script.Path,
			Dispatcher:   w.Dispatcher,
			ContentType:  w.Script.ContentType,
			ResourceType: w.Script.ResourceType,
		}
		if err = router.Add(route); err != nil {
			log.Fatalf("bundle %s: %s", w.Bundle, err)
		}
		log.Printf("serving %s (%s %s)", route.Path, w.Bundle, w.Script.Name)
	}

	mux := http.NewServeMux()
	mux.Handle("/", router)
	if *wsPath != "" {
		mux.Handle(*wsPath, router.WebSocketHandler())
	}

	if *broker != "" {
		m, err := startMQTT(ctx, router, *broker, *clientId, *subTopics, *topicPrefix, *replyTopic)
		if err != nil {
			log.Fatalf("MQTT: %s", err)
		}
		defer m.Stop(ctx)
	}

	s := &http.Server{
		Addr:           *httpPort,
		Handler:        mux,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, os.Interrupt)
		<-sigs
		log.Printf("shutting down")
		c, done := context.WithTimeout(ctx, 5*time.Second)
		defer done()
		if err := s.Shutdown(c); err != nil {
			log.Printf("Shutdown error %v", err)
		}
	}()

	log.Printf("Starting HTTP service on %s", *httpPort)
	if err = s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("ListenAndServe error %v", err)
	}

	log.Printf("main terminating")
}

// loadBundles reads the manifests in dir (if any) and, given a
// storeFile, stores them in BoltDB.  Without a dir, the bundles come
// from the store.
func loadBundles(ctx context.Context, dir, storeFile string, debug bool) ([]*bundle.Bundle, error) {
	var (
		bs  []*bundle.Bundle
		err error
	)
	if dir != "" {
		if bs, err = bundle.ReadDir(dir); err != nil {
			return nil, err
		}
	}

	var store storage.Storage = &storage.NoopStorage{}
	if storeFile != "" {
		b, err := bolt.NewStorage(storeFile)
		if err != nil {
			return nil, err
		}
		b.Debug = debug
		if err = b.Open(); err != nil {
			return nil, err
		}
		defer b.Close()
		store = b
	}

	if dir == "" {
		return storage.Load(ctx, store)
	}

	for _, b := range bs {
		if err = store.Put(ctx, b); err != nil {
			return nil, err
		}
	}
	return bs, nil
}

func startMQTT(ctx context.Context, router *host.Router, broker, clientId, subTopics, prefix, reply string) (*host.MQTT, error) {
	mqtt.ERROR = log.New(os.Stderr, "mqtt.error", 0)

	log.Printf("broker: %s", broker)
	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientId)
	opts.SetKeepAlive(600 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.AutoReconnect = true

	opts.OnConnectionLost = func(client mqtt.Client, err error) {
		log.Printf("MQTT connection lost")
	}

	m := &host.MQTT{
		Client:      mqtt.NewClient(opts),
		Router:      router,
		SubTopics:   subTopics,
		TopicPrefix: prefix,
		ReplyTopic:  reply,
		Quiesce:     100,
	}
	if err := m.Start(ctx); err != nil {
		return nil, err
	}
	return m, nil
}
