package classify

import (
	"context"
	"encoding/json"

	"github.com/crehub/news-digest/internal/llm"
)

type reply struct {
	body string
	err  error
}

// fakeClient replays scripted replies in order and records every request.
type fakeClient struct {
	replies  []reply
	requests []llm.Request
}

func (f *fakeClient) Classify(_ context.Context, req llm.Request) (json.RawMessage, error) {
	f.requests = append(f.requests, req)
	i := len(f.requests) - 1
	if i >= len(f.replies) {
		return nil, llm.ErrNotConfigured
	}
	r := f.replies[i]
	if r.err != nil {
		return nil, r.err
	}
	return json.RawMessage(r.body), nil
}
