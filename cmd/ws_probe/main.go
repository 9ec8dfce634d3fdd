package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

// Smoke client: opens two sessions against a running server, joins them
// into one connect-four room and prints the event stream. Run with the
// server already listening; APP_PORT selects the target.
func main() {
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	// use 127.0.0.1 to prefer IPv4 (avoid resolving to [::1])
	wsURL := fmt.Sprintf("ws://127.0.0.1:%s/ws", port)
	dialer := websocket.DefaultDialer

	connA, _, err := dialer.Dial(wsURL, nil)
	if err != nil {
		log.Fatalf("dial A: %v", err)
	}
	defer connA.Close()

	connB, _, err := dialer.Dial(wsURL, nil)
	if err != nil {
		log.Fatalf("dial B: %v", err)
	}
	defer connB.Close()

	waitFor := func(conn *websocket.Conn, name, event string) map[string]any {
		deadline := time.Now().Add(5 * time.Second)
		for time.Now().Before(deadline) {
			conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				continue
			}
			var obj map[string]any
			if err := json.Unmarshal(msg, &obj); err != nil {
				continue
			}
			t, _ := obj["type"].(string)
			log.Printf("%s got: %s", name, string(msg))
			if t == event {
				return obj
			}
		}
		log.Fatalf("%s: never saw %q", name, event)
		return nil
	}

	waitFor(connA, "A", "ready")
	waitFor(connB, "B", "ready")

	join := []byte(`{"type":"join","data":{"game_name":"c4","create_if_not_found":true}}`)
	if err := connA.WriteMessage(websocket.TextMessage, join); err != nil {
		log.Fatalf("join A: %v", err)
	}
	waitFor(connA, "A", "waiting")
	if err := connB.WriteMessage(websocket.TextMessage, join); err != nil {
		log.Fatalf("join B: %v", err)
	}

	waitFor(connA, "A", "start_game")
	waitFor(connB, "B", "start_game")

	// alternate a few moves; whoever is not on turn just gets ignored
	act := func(conn *websocket.Conn, col int) {
		msg := []byte(fmt.Sprintf(`{"type":"action","data":{"action":%d}}`, col))
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.Fatalf("action: %v", err)
		}
	}
	for col := 0; col < 3; col++ {
		act(connA, col)
		act(connB, col)
		time.Sleep(300 * time.Millisecond)
	}

	waitFor(connA, "A", "state_pong")

	if err := connA.WriteMessage(websocket.TextMessage, []byte(`{"type":"leave"}`)); err != nil {
		log.Fatalf("leave A: %v", err)
	}
	waitFor(connA, "A", "end_game")

	log.Println("probe finished")
}
