package main

import (
	"context"
	"git.gammaspectra.live/P2Pool/p2pool-stats/utils"
	"golang.org/x/exp/slices"
	"net/http"
	"nhooyr.io/websocket"
	"sync"
	"sync/atomic"
	"time"
)

type listener struct {
	ListenerId uint64
	Write      func(buf []byte)
	Context    context.Context
}

var listenerLock sync.RWMutex
var listenerIdCounter atomic.Uint64
var listeners []*listener

type refreshEvent struct {
	Generation uint64 `json:"generation"`
	Complete   bool   `json:"complete"`
	Timestamp  int64  `json:"timestamp"`
}

func broadcastEvent(ev refreshEvent) {
	buf, err := utils.MarshalJSON(ev)
	if err != nil {
		return
	}
	listenerLock.RLock()
	defer listenerLock.RUnlock()
	for _, l := range listeners {
		l.Write(buf)
	}
}

func eventsHandler(writer http.ResponseWriter, request *http.Request) {
	requestTime := time.Now()
	conn, err := websocket.Accept(writer, request, nil)
	if err != nil {
		writer.WriteHeader(http.StatusInternalServerError)
		return
	}
	listenerId := listenerIdCounter.Add(1)
	defer func() {
		listenerLock.Lock()
		defer listenerLock.Unlock()
		if i := slices.IndexFunc(listeners, func(listener *listener) bool {
			return listener.ListenerId == listenerId
		}); i != -1 {
			listeners = slices.Delete(listeners, i, i+1)
		}
		utils.Logf("[WS] Client %d detached after %.02f seconds", listenerId, time.Now().Sub(requestTime).Seconds())
	}()

	ctx := conn.CloseRead(request.Context())
	func() {
		listenerLock.Lock()
		defer listenerLock.Unlock()
		listeners = append(listeners, &listener{
			ListenerId: listenerId,
			Context:    ctx,
			Write: func(buf []byte) {
				writeCtx, cancel := context.WithTimeout(ctx, time.Second*5)
				defer cancel()
				if err := conn.Write(writeCtx, websocket.MessageText, buf); err != nil {
					_ = conn.Close(websocket.StatusInternalError, "write failed")
				}
			},
		})
	}()
	utils.Logf("[WS] Client %d attached", listenerId)

	<-ctx.Done()
	_ = conn.Close(websocket.StatusNormalClosure, "")
}
