package http

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"github.com/gorilla/websocket"

	"quiz-funnel/internal/app"
	"quiz-funnel/internal/domain"
)

// WSHandler streams the live parts of the result page: the social proof
// counters while they animate, then the weekly countdown.
type WSHandler struct {
	service  *app.FunnelService
	store    sessions.Store
	upgrader websocket.Upgrader

	frameInterval     time.Duration
	countdownInterval time.Duration
	now               func() time.Time
}

func NewWSHandler(service *app.FunnelService, store sessions.Store) *WSHandler {
	return &WSHandler{
		service: service,
		store:   store,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		frameInterval:     30 * time.Millisecond,
		countdownInterval: time.Second,
		now:               time.Now,
	}
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

// ServeResult upgrades visitors who unlocked their result.
func (h *WSHandler) ServeResult(w http.ResponseWriter, r *http.Request) {
	id, ok := existingVisitor(h.store, r)
	if !ok {
		http.Error(w, "unknown visitor", http.StatusUnauthorized)
		return
	}
	p, err := h.service.Current(r.Context(), id)
	if err != nil {
		log.Printf("ws load progress: %v", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if p.View != domain.ViewResult {
		http.Error(w, "result not unlocked", http.StatusConflict)
		return
	}
	funnel, err := h.service.Funnel(r.Context())
	if err != nil {
		log.Printf("ws load funnel: %v", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 16)
	closed := make(chan struct{})
	writerDone := make(chan struct{})

	// Single writer; gorilla connections do not support concurrent writes.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				conn.Close()
				return
			}
		}
	}()

	// The client never sends anything; reading only notices the close.
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if h.streamCounters(send, closed, app.ResultCounters(funnel.Result.Proof)) {
		h.streamCountdown(send, closed)
	}

	close(send)
	<-writerDone
}

// streamCounters emits frames until every counter settles. It reports false
// when the client went away first.
func (h *WSHandler) streamCounters(send chan<- outboundMessage[any], closed <-chan struct{}, counters []app.Counter) bool {
	ticker := time.NewTicker(h.frameInterval)
	defer ticker.Stop()

	started := h.now()
	for {
		frame := app.FrameAt(counters, h.now().Sub(started))
		select {
		case send <- outboundMessage[any]{Type: "counters", Payload: frame}:
		case <-closed:
			return false
		}
		if frame.Settled {
			return true
		}
		select {
		case <-ticker.C:
		case <-closed:
			return false
		}
	}
}

func (h *WSHandler) streamCountdown(send chan<- outboundMessage[any], closed <-chan struct{}) {
	ticker := time.NewTicker(h.countdownInterval)
	defer ticker.Stop()

	for {
		select {
		case send <- outboundMessage[any]{Type: "countdown", Payload: h.service.Countdown()}:
		case <-closed:
			return
		}
		select {
		case <-ticker.C:
		case <-closed:
			return
		}
	}
}
