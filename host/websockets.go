package host

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

// WebSocketHandler returns an http.Handler that upgrades to a
// WebSocket and then serves each message as a FrameRequest.  Each
// FrameResponse goes back as one message.
//
// Messages on one connection are served in order.
func (rr *Router) WebSocketHandler() http.Handler {
	var upgrader = websocket.Upgrader{} // use default options

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade error", err)
			return
		}
		defer c.Close()

		ctx := r.Context()

		for {
			mt, message, err := c.ReadMessage()
			if err != nil {
				rr.logf("WebSocketHandler read error %v", err)
				break
			}

			var res *FrameResponse
			f, err := ParseFrame(message)
			if err == nil {
				res, err = rr.ServeFrame(ctx, f)
			}
			if err != nil {
				res = frameError(http.StatusBadRequest, fmt.Sprintf("can't serve: %v", err))
			}

			js, err := json.Marshal(res)
			if err != nil {
				log.Printf("WebSocketHandler Marshal error %v on %#v", err, res)
				continue
			}
			if err = c.WriteMessage(mt, js); err != nil {
				log.Println("write error", err)
				break
			}
		}
	})
}

func frameError(status int, msg string) *FrameResponse {
	js, _ := json.Marshal(map[string]interface{}{
		"error": msg,
	})
	return &FrameResponse{
		Status:      status,
		ContentType: "application/json; charset=UTF-8",
		Body:        string(js),
	}
}
