package chat

import (
	"context"
	"errors"
	"time"

	"github.com/NitinBot001/claude-interface/internal/store"
	"github.com/NitinBot001/claude-interface/internal/stream"
)

// requestFor builds the producer request for a message, substituting the
// image-only prompt when the user supplied no text.
func (s *Service) requestFor(msg store.Message) stream.Request {
	prompt := msg.UserText
	if prompt == "" {
		prompt = imageOnlyPrompt
	}
	return stream.Request{Prompt: prompt, Image: msg.UserImage, Model: msg.Model}
}

// startStreamLocked launches the response stream for msg. The stream
// context is detached from the caller's: the response outlives the UI
// event that triggered it and is stopped only by CancelStream.
func (s *Service) startStreamLocked(msg store.Message, req stream.Request, isNewChat bool) {
	ctx, cancel := context.WithCancel(context.Background())
	s.streamingMsgID = msg.ID
	s.cancelStream = cancel

	go s.runStream(ctx, msg, req, isNewChat)
}

// runStream consumes the producer and settles the message: full text and
// completion timestamp on success, an error-marker response on failure,
// untouched (still pending) on cancellation. Chunks are never persisted;
// they only flow through the broker.
func (s *Service) runStream(ctx context.Context, msg store.Message, req stream.Request, isNewChat bool) {
	final, err := s.producer.Stream(ctx, req, func(_, full string) {
		s.broker.Publish(msg.ID, full)
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.streamingMsgID == msg.ID {
		s.streamingMsgID = ""
		s.cancelStream = nil
	}

	if err != nil && (errors.Is(err, context.Canceled) || ctx.Err() != nil) {
		s.broker.Clear(msg.ID)
		s.logger.Debug("stream cancelled", "msg_id", msg.ID)
		return
	}

	// The triggering context is gone; settle with a fresh one.
	sctx := context.Background()
	now := time.Now().UTC()
	msg.RespondedAt = &now

	if err != nil {
		s.logger.Error("stream failed", "msg_id", msg.ID, "error", err)
		s.lastErr = err
		msg.Response = errorMarker + err.Error()
		if uerr := s.store.UpdateMessage(sctx, msg); uerr != nil {
			s.logger.Error("persisting error marker failed", "msg_id", msg.ID, "error", uerr)
			s.lastErr = uerr
		}
		s.broker.Clear(msg.ID)
	} else {
		msg.Response = final
		if uerr := s.store.UpdateMessage(sctx, msg); uerr != nil {
			s.logger.Error("persisting response failed", "msg_id", msg.ID, "error", uerr)
			s.lastErr = uerr
		}
		if isNewChat {
			// First response of a brand-new chat settles its title.
			if terr := s.store.UpdateChatTitle(sctx, msg.ChatID, deriveTitle(msg.UserText)); terr != nil {
				s.logger.Warn("updating chat title failed", "chat_id", msg.ChatID, "error", terr)
			}
		} else if terr := s.store.TouchChat(sctx, msg.ChatID); terr != nil {
			s.logger.Warn("touching chat failed", "chat_id", msg.ChatID, "error", terr)
		}
		s.broker.Finish(msg.ID, final)
	}

	if rerr := s.reloadChatsLocked(sctx); rerr != nil {
		s.logger.Error("reloading chats failed", "error", rerr)
		s.lastErr = rerr
	}
	if s.currentChatID == msg.ChatID {
		if rerr := s.reloadMessagesLocked(sctx, msg.ChatID, true); rerr != nil {
			s.logger.Error("reloading messages failed", "chat_id", msg.ChatID, "error", rerr)
			s.lastErr = rerr
		}
	}
}

// cancelStreamLocked stops the in-flight stream and clears its transient
// channel. The target message's persisted state is left exactly as last
// written.
func (s *Service) cancelStreamLocked() {
	if s.cancelStream == nil {
		return
	}
	s.cancelStream()
	s.cancelStream = nil
	if s.streamingMsgID != "" {
		s.broker.Clear(s.streamingMsgID)
		s.streamingMsgID = ""
	}
}
