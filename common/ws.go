package common

import (
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
)

func CloseConn(conn *websocket.Conn) error {
	err := conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		return fmt.Errorf("[common][CloseConn][conn.WriteControl] error: %w", err)
	}

	err = conn.Close()
	if err != nil {
		return fmt.Errorf("[common][CloseConn][conn.Close] error: %w", err)
	}

	return nil
}
