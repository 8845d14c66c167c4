package collab

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"roleready/internal/pkg/errs"
	"roleready/internal/pkg/logx"
	"roleready/internal/pkg/metrics"
	"roleready/internal/pkg/randx"
)

// DefaultAIResponse is the canned answer streamed until a model is wired in.
const DefaultAIResponse = "This is a simulated AI response. " +
	"Once the assistant is connected it will suggest stronger bullet points, " +
	"tailor your summary to the job description and highlight measurable results."

// Streamer emits a fixed response word by word to mimic token streaming.
type Streamer struct {
	response string
	delay    time.Duration
	logger   zerolog.Logger
}

// NewStreamer returns a Streamer that waits delay before each chunk.
func NewStreamer(response string, delay time.Duration) *Streamer {
	if response == "" {
		response = DefaultAIResponse
	}
	return &Streamer{
		response: response,
		delay:    delay,
		logger:   logx.Logger().With().Str("component", "Streamer").Logger(),
	}
}

// Words returns the chunks a stream will emit.
func (s *Streamer) Words() []string {
	return strings.Fields(s.response)
}

// Stream emits ai_response_start, one ai_response_chunk per word and
// ai_response_end through emit. A cancelled ctx stops the stream silently;
// any other failure is reported once as ai_error.
func (s *Streamer) Stream(ctx context.Context, prompt string, emit func(Frame) bool) {
	requestID := randx.StreamID()
	logger := s.logger.With().Str("request_id", requestID).Logger()

	err := s.run(ctx, requestID, emit)

	switch {
	case err == nil:
		metrics.AIStreams.WithLabelValues("completed").Inc()
		logger.Debug().Int("prompt_len", len(prompt)).Msg("AI stream completed.")

	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		metrics.AIStreams.WithLabelValues("cancelled").Inc()
		logger.Debug().Msg("AI stream cancelled.")

	default:
		metrics.AIStreams.WithLabelValues("failed").Inc()
		logger.Error().Err(err).Msg("AI stream failed.")

		customErr := errs.NewError(errs.ErrAIStreamFailed)
		frame, ferr := NewFrame(EventAIError, ErrorPayload{
			RequestID: requestID,
			Code:      customErr.Code,
			Message:   customErr.Message,
		})
		if ferr == nil {
			emit(frame)
		}
	}
}

func (s *Streamer) run(ctx context.Context, requestID string, emit func(Frame) bool) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("stream panic: %v", r)
		}
	}()

	send := func(t EventType, payload any) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		frame, err := NewFrame(t, payload)
		if err != nil {
			return fmt.Errorf("build %s frame: %w", t, err)
		}
		if !emit(frame) {
			return fmt.Errorf("emit %s: send queue rejected frame", t)
		}
		return nil
	}

	if err := send(EventAIResponseStart, AIStreamPayload{RequestID: requestID}); err != nil {
		return err
	}

	words := s.Words()
	for i, word := range words {
		if err := s.wait(ctx); err != nil {
			return err
		}

		chunk := word
		if i < len(words)-1 {
			chunk += " "
		}
		if err := send(EventAIResponseChunk, AIChunkPayload{RequestID: requestID, Index: i, Chunk: chunk}); err != nil {
			return err
		}
	}

	return send(EventAIResponseEnd, AIStreamPayload{RequestID: requestID, Response: strings.Join(words, " ")})
}

func (s *Streamer) wait(ctx context.Context) error {
	if s.delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(s.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
