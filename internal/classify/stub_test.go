package classify

import (
	"context"
	"sync"

	"github.com/ppiankov/coastwatch/internal/llm"
)

// stubProvider answers every Complete call with reply, or with reply(req) when set.
type stubProvider struct {
	mu       sync.Mutex
	reply    string
	replyFor func(req llm.CompletionRequest) (string, error)
	err      error
	requests []llm.CompletionRequest
}

func (s *stubProvider) Name() string { return "stub" }
func (s *stubProvider) IsAvailable(ctx context.Context) bool { return true }

func (s *stubProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.Completion, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}
	if s.replyFor != nil {
		content, err := s.replyFor(req)
		if err != nil {
			return nil, err
		}
		return &llm.Completion{Content: content}, nil
	}
	return &llm.Completion{Content: s.reply}, nil
}

func (s *stubProvider) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}
