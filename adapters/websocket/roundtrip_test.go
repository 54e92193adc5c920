package websocket

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/chatrelay/chatrelay/usecase"
)

var _ = Describe("Server round trip", func() {
	var (
		server *Server
		ts     *httptest.Server
	)

	BeforeEach(func() {
		server = NewServer(usecase.NewRelayService(&echoLlm{}))
		server.RunWebsocketHub()

		e := echo.New()
		e.GET("/ws", server.Handler)
		ts = httptest.NewServer(e)
	})

	AfterEach(func() {
		server.Shutdown()
		ts.Close()
	})

	dial := func() *websocket.Conn {
		url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		Expect(err).NotTo(HaveOccurred())
		conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		return conn
	}

	readFrame := func(conn *websocket.Conn) map[string]string {
		_, frame, err := conn.ReadMessage()
		Expect(err).NotTo(HaveOccurred())
		var out map[string]string
		Expect(json.Unmarshal(frame, &out)).To(Succeed())
		return out
	}

	It("answers one frame with one reply frame", func() {
		conn := dial()
		defer conn.Close()

		Expect(conn.WriteMessage(websocket.TextMessage, []byte(`{"message":"hi"}`))).To(Succeed())
		Expect(readFrame(conn)).To(HaveKeyWithValue("reply", "reply to: hi"))
	})

	It("keeps the connection usable after a validation error", func() {
		conn := dial()
		defer conn.Close()

		Expect(conn.WriteMessage(websocket.TextMessage, []byte(`{"history":[]}`))).To(Succeed())
		Expect(readFrame(conn)).To(HaveKeyWithValue("error", "Message is required and must be a string"))

		Expect(conn.WriteMessage(websocket.TextMessage, []byte(`{"message":"still here"}`))).To(Succeed())
		Expect(readFrame(conn)).To(HaveKeyWithValue("reply", "reply to: still here"))
	})

	It("closes connections on shutdown", func() {
		conn := dial()
		defer conn.Close()

		server.Shutdown()

		// The shutdown notice may arrive before the close frame; either
		// way the read loop must terminate with an error.
		var err error
		for range [4]int{} {
			if _, _, err = conn.ReadMessage(); err != nil {
				break
			}
		}
		Expect(err).To(HaveOccurred())
	})
})
