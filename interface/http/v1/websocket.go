package v1

import (
	"context"
	"encoding/json"
	"github.com/gorilla/websocket"
	"github.com/shimmeringbee/bridge/state"
	"github.com/shimmeringbee/logwrap"
	"net/http"
)

var wsUpgrader = websocket.Upgrader{}

const WebsocketConnectionEventBufferSize = 16

type websocketController struct {
	eventbus state.EventSubscriber
	provider StatusProvider
	logger   logwrap.Logger
}

func (z *websocketController) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	c, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		z.logger.LogWarn(r.Context(), "Failed to upgrade websocket connection.", logwrap.Err(err))
		return
	}
	defer c.Close()

	if err := z.handleConnection(c); err != nil {
		z.logger.LogDebug(r.Context(), "Websocket connection ended.", logwrap.Err(err))
	}
}

func (z *websocketController) handleConnection(c *websocket.Conn) error {
	eventsCh := make(chan any, WebsocketConnectionEventBufferSize)
	shutdownCh := make(chan struct{})
	defer close(shutdownCh)

	z.eventbus.Subscribe(eventsCh)
	defer z.eventbus.Unsubscribe(eventsCh)

	go z.serviceOutgoing(c, initialMessages(z.provider), eventsCh, shutdownCh)
	return z.serviceIncoming(c)
}

func (z *websocketController) serviceOutgoing(c *websocket.Conn, initial []any, ch chan any, shutCh chan struct{}) {
	for _, m := range initial {
		if err := z.send(c, m); err != nil {
			z.logger.LogError(context.Background(), "Failed to send initial message to websocket.", logwrap.Err(err))
			return
		}
	}

	for {
		select {
		case event := <-ch:
			m, ok := mapEvent(event)
			if !ok {
				continue
			}

			if err := z.send(c, m); err != nil {
				z.logger.LogError(context.Background(), "Failed to send message to websocket.", logwrap.Err(err))
				return
			}
		case <-shutCh:
			return
		}
	}
}

func (z *websocketController) send(c *websocket.Conn, m any) error {
	d, err := json.Marshal(m)
	if err != nil {
		return err
	}

	return c.WriteMessage(websocket.TextMessage, d)
}

func (z *websocketController) serviceIncoming(c *websocket.Conn) error {
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			if _, ok := err.(*websocket.CloseError); ok {
				z.logger.LogDebug(context.Background(), "Websocket closed.", logwrap.Err(err))
				return nil
			}

			return err
		}
	}
}
