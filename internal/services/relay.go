package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"avatar-relay/internal/logger"
	"avatar-relay/internal/models"
)

// ChunkWriter receives the relayed output. Begin is called once the provider
// has accepted the request, before the first WriteChunk.
type ChunkWriter interface {
	Begin()
	WriteChunk(chunk string) error
}

// TurnSink receives completed turns. Submit must not block.
type TurnSink interface {
	Submit(ev models.TurnEvent)
}

// RelayService owns the conversation history and drives one chat request
// from validation to the history update.
type RelayService struct {
	client   ChatStreamer
	history  *ConversationHistory
	detector IntentDetector
	sink     TurnSink
	turnGate chan struct{} // single token: one conversation turn at a time
}

func NewRelayService(client ChatStreamer, history *ConversationHistory, detector IntentDetector, sink TurnSink) *RelayService {
	gate := make(chan struct{}, 1)
	gate <- struct{}{}

	return &RelayService{
		client:   client,
		history:  history,
		detector: detector,
		sink:     sink,
		turnGate: gate,
	}
}

func (s *RelayService) History() *ConversationHistory { return s.history }

// NormalizeRequest enforces a non-empty message and defaults the language.
func NormalizeRequest(req models.ChatRequest) (models.ChatRequest, error) {
	if req.Message == "" {
		return req, &ValidationError{Message: "Missing message"}
	}
	if req.Language == "" {
		req.Language = DefaultLanguage
	}
	return req, nil
}

// acquireTurn blocks until the conversation gate is free.
func (s *RelayService) acquireTurn(ctx context.Context) error {
	select {
	case <-s.turnGate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *RelayService) releaseTurn() {
	s.turnGate <- struct{}{}
}

// Relay runs one chat request. Errors returned before out.Begin was called
// leave nothing written; errors after it mean the output was cut short.
// History changes only when the provider stream completes normally.
func (s *RelayService) Relay(ctx context.Context, req models.ChatRequest, out ChunkWriter) error {
	req, err := NormalizeRequest(req)
	if err != nil {
		return err
	}

	log := logger.FromContext(ctx)
	start := time.Now()
	translation := s.detector.IsTranslation(req.Message)

	var messages []models.ChatMessage
	if translation {
		messages = ComposeTranslation(req.Message)
	} else {
		// Snapshot and append happen under the same token so concurrent
		// turns cannot interleave.
		if err := s.acquireTurn(ctx); err != nil {
			return &InternalError{Cause: fmt.Errorf("waiting for conversation turn: %w", err)}
		}
		defer s.releaseTurn()
		messages = ComposeConversation(req.Language, s.history.Snapshot(), req.Message)
	}

	log.Info("relaying chat message",
		"language", req.Language,
		"translation", translation,
		"messages", len(messages))

	stream, err := s.client.StreamChat(ctx, messages)
	if err != nil {
		return err
	}
	defer stream.Close()

	out.Begin()

	var transcript strings.Builder
	chunks := 0
	for fragment := range stream.Chunks() {
		transcript.WriteString(fragment)
		chunks++
		if err := out.WriteChunk(fragment); err != nil {
			return fmt.Errorf("writing chunk to caller: %w", err)
		}
	}
	if err := stream.Err(); err != nil {
		return fmt.Errorf("provider stream interrupted: %w", err)
	}

	reply := transcript.String()
	kind := models.TurnTranslation
	if !translation {
		kind = models.TurnConversation
		s.history.AppendTurn(req.Message, reply)
	}

	log.Info("chat relay completed", "kind", kind, "chunks", chunks, "response_length", len(reply))

	if s.sink != nil {
		s.sink.Submit(models.TurnEvent{
			ID:         uuid.New(),
			RequestID:  logger.RequestIDFromContext(ctx),
			Kind:       kind,
			Language:   req.Language,
			UserText:   req.Message,
			Reply:      reply,
			Chunks:     chunks,
			DurationMS: time.Since(start).Milliseconds(),
			CreatedAt:  time.Now().UTC(),
		})
	}
	return nil
}
