package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"

	"reelchat/internal/imtypes"
	"reelchat/internal/models"
)

func (s *shell) watch(args []string) error {
	if len(args) == 1 && args[0] == "off" {
		s.stopWatch()
		fmt.Println("Stopped watching")
		return nil
	}
	if len(args) != 0 {
		return errUsage
	}

	wsURL, err := s.api.WebSocketURL(s.cfg.Client.ChatURL, s.cfg.Server.WebSocketPath)
	if err != nil {
		return err
	}
	s.stopWatch()

	ctx, cancel := context.WithCancel(context.Background())
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		cancel()
		return fmt.Errorf("connect to chat server: %w", err)
	}
	s.cancelWatch = cancel

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()
	go func() {
		defer cancel()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() == nil {
					fmt.Println("\n[watch] disconnected:", err)
				}
				return
			}
			var frame imtypes.Frame
			if err := json.Unmarshal(data, &frame); err != nil {
				continue
			}
			fmt.Println("\n" + describeFrame(frame))
		}
	}()
	fmt.Println("Watching live events. 'watch off' to stop.")
	return nil
}

func (s *shell) stopWatch() {
	if s.cancelWatch != nil {
		s.cancelWatch()
		s.cancelWatch = nil
	}
}

func describeFrame(frame imtypes.Frame) string {
	switch frame.Type {
	case imtypes.WelcomeFrame:
		return "[watch] connected as " + frame.UserID
	case imtypes.ErrorFrame:
		return "[watch] error: " + frame.Error
	}
	if frame.Event == nil {
		return "[watch] " + string(frame.Type)
	}
	e := frame.Event
	switch e.Type {
	case imtypes.RoomMessagePosted:
		var msg models.RoomMessage
		if json.Unmarshal(e.Payload, &msg) == nil {
			return fmt.Sprintf("[%s] %s", e.RoomID, formatMessage(msg))
		}
	case imtypes.FriendRequestCreated:
		return fmt.Sprintf("[watch] new friend request %s", e.RequestID)
	}
	return fmt.Sprintf("[watch] %s (%s)", e.Type, e.PairID)
}
