package v1

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/copaslink/copas/internal/hub"
)

func TestViewerReceivesItemUpdates(t *testing.T) {
	e := echo.New()
	h, _ := newTestHandler(t)
	h.RegisterRoutes(e)

	srv := httptest.NewServer(e)
	defer srv.Close()

	// Create a clipboard over the real server.
	res, err := http.Post(srv.URL+"/v1/clipboards", echo.MIMEApplicationJSON, nil)
	if err != nil {
		t.Fatalf("create clipboard: %v", err)
	}
	var created map[string]string
	if err := json.NewDecoder(res.Body).Decode(&created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	res.Body.Close()
	id := created["id"]

	// Attach a viewer.
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/clipboards/" + id + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	defer conn.Close()

	// The handshake may complete before the hub registers the viewer.
	deadline := time.Now().Add(time.Second)
	for h.hub.ViewerCount(id) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("viewer never registered with hub")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// Mutate the clipboard through the JSON API.
	body := bytes.NewBufferString(`{"items":["live"]}`)
	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/v1/clipboards/"+id+"/items", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	res, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("replace items: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("replace items status = %d", res.StatusCode)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read websocket frame: %v", err)
	}

	var ev hub.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if ev.Type != hub.EventItemsUpdated || ev.ClipboardID != id {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if len(ev.Items) != 1 || ev.Items[0] != "live" {
		t.Fatalf("unexpected items in event: %v", ev.Items)
	}
}
