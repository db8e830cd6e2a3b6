// Package classifiertest provides a scripted classifier for tests.
package classifiertest

import (
	"context"
	"sync"

	"github.com/birdeye-app/birdeye/internal/classifier"
)

// ReplyFunc produces the answer for a request.
type ReplyFunc func(req classifier.Request) (string, error)

// Stub is a classifier.Classifier that records every request and answers
// through a ReplyFunc. Safe for concurrent use.
type Stub struct {
	reply ReplyFunc

	mu       sync.Mutex
	requests []classifier.Request
}

// New returns a Stub answering with reply.
func New(reply ReplyFunc) *Stub {
	return &Stub{reply: reply}
}

// Phased returns a Stub answering candidates for phase 1 and judgment for
// phase 2.
func Phased(candidates, judgment string) *Stub {
	return New(func(req classifier.Request) (string, error) {
		if req.Phase == classifier.PhaseCandidates {
			return candidates, nil
		}
		return judgment, nil
	})
}

// Complete implements classifier.Classifier.
func (s *Stub) Complete(ctx context.Context, req classifier.Request) (string, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.reply(req)
}

// Calls returns the number of requests seen.
func (s *Stub) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// CallsFor returns the number of requests seen for one phase.
func (s *Stub) CallsFor(phase string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.requests {
		if r.Phase == phase {
			n++
		}
	}
	return n
}

// Requests returns a copy of the recorded requests.
func (s *Stub) Requests() []classifier.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]classifier.Request(nil), s.requests...)
}
