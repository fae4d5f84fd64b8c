package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rzbill/relay/internal/transport"
	"github.com/rzbill/relay/pkg/log"
)

// handleRequest decodes one inbound frame and routes it. Unknown or
// malformed requests are answered with an error event on the same
// connection; the connection stays up.
func (s *Server) handleRequest(connectionID string, raw []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var req request
	if err := json.Unmarshal(raw, &req); err != nil {
		s.sendError(ctx, connectionID, "malformed request")
		return
	}

	var err error
	switch req.Action {
	case actionSubscribe:
		err = s.rt.Subscriptions().Subscribe(ctx, req.ChannelID, connectionID)
	case actionUnsubscribe:
		err = s.rt.Subscriptions().Unsubscribe(ctx, req.ChannelID, connectionID)
	case actionSendMessage:
		err = s.sendMessage(ctx, connectionID, req)
	case actionLoadHistory:
		err = s.loadHistory(ctx, connectionID, req.ChannelID)
	default:
		s.sendError(ctx, connectionID, "unknown action: "+req.Action)
		return
	}
	if err != nil {
		s.logger.Error("request failed",
			log.Str("connection", connectionID),
			log.Str("action", req.Action),
			log.Str("channel", req.ChannelID),
			log.Err(err),
		)
		s.sendError(ctx, connectionID, "request failed")
	}
}

// sendMessage durably appends the message, then fans it out to the
// channel's current members. The append is the durability boundary: a
// fan-out hiccup never unwinds the write.
func (s *Server) sendMessage(ctx context.Context, connectionID string, req request) error {
	msg, err := s.rt.Messages().Post(ctx, req.ChannelID, connectionID, req.Name, req.Content)
	if err != nil {
		return err
	}
	return s.dispatcher.BroadcastMessage(ctx, req.ChannelID, msg)
}

// loadHistory replays the channel's first history page to the requesting
// connection only, oldest first, as ordinary channel_message events.
func (s *Server) loadHistory(ctx context.Context, connectionID, channelID string) error {
	msgs, err := s.rt.Messages().History(ctx, channelID, s.rt.Config().HistoryLimit)
	if err != nil {
		return err
	}
	for _, m := range msgs {
		payload, err := json.Marshal(transport.ChannelMessage{
			Event:     transport.EventChannelMessage,
			ChannelID: channelID,
			Name:      m.Name,
			Content:   m.Content,
		})
		if err != nil {
			return err
		}
		if !s.registry.Send(ctx, connectionID, payload) {
			// Requester went away mid-replay; nothing left to do.
			return nil
		}
	}
	return nil
}

func (s *Server) sendError(ctx context.Context, connectionID, message string) {
	payload, err := json.Marshal(transport.Error{Event: transport.EventError, Message: message})
	if err != nil {
		return
	}
	s.registry.Send(ctx, connectionID, payload)
}
