package service

import (
	"context"
	"sync"
	"sync/atomic"

	"creatorhub/internal/genai"
	"creatorhub/internal/model"
	"creatorhub/internal/repository"
)

type fakeEngine struct {
	ideas      func(req genai.IdeaRequest) (genai.IdeaResult, error)
	transcribe func(attempt int) (string, error)
	repurpose  func(ctx context.Context, req genai.RepurposeRequest) (string, error)

	ideaCalls       atomic.Int32
	transcribeCalls atomic.Int32
	repurposeCalls  atomic.Int32
}

func (f *fakeEngine) GenerateIdeas(ctx context.Context, req genai.IdeaRequest) (genai.IdeaResult, error) {
	f.ideaCalls.Add(1)
	if f.ideas == nil {
		return genai.IdeaResult{Ideas: genai.FallbackIdeas(req.Topic, req.Count), Fallback: true}, nil
	}
	return f.ideas(req)
}

func (f *fakeEngine) Transcribe(ctx context.Context, media []byte, filename string) (string, error) {
	n := f.transcribeCalls.Add(1)
	if f.transcribe == nil {
		return "a transcript long enough to be useful", nil
	}
	return f.transcribe(int(n))
}

func (f *fakeEngine) RepurposeForPlatform(ctx context.Context, req genai.RepurposeRequest) (string, error) {
	f.repurposeCalls.Add(1)
	if f.repurpose == nil {
		return req.Platform + " post", nil
	}
	return f.repurpose(ctx, req)
}

func (f *fakeEngine) calls() int {
	return int(f.ideaCalls.Load() + f.transcribeCalls.Load() + f.repurposeCalls.Load())
}

type fakeUserRepo struct {
	users map[string]*model.User
	err   error
}

func (r *fakeUserRepo) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

type fakeRecorder struct {
	mu       sync.Mutex
	err      error
	requests []repository.RecordRequest
}

func (r *fakeRecorder) Record(ctx context.Context, req repository.RecordRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	for i, item := range req.Items {
		item.ID = "content-" + string(rune('a'+i))
		item.UserID = req.UserID
	}
	r.requests = append(r.requests, req)
	return nil
}

type fakeContentRepo struct {
	listed    []*model.GeneratedContent
	gotType   *model.ContentType
	gotLimit  int
	gotOffset int
	deleteErr error
}

func (r *fakeContentRepo) ListByUser(ctx context.Context, userID string, ct *model.ContentType, limit, offset int) ([]*model.GeneratedContent, error) {
	r.gotType, r.gotLimit, r.gotOffset = ct, limit, offset
	return r.listed, nil
}

func (r *fakeContentRepo) DeleteForUser(ctx context.Context, id, userID string) error {
	return r.deleteErr
}

type fakeMediaStore struct {
	mu      sync.Mutex
	putErr  error
	objects map[string][]byte
	deleted []string
}

func newFakeMediaStore() *fakeMediaStore {
	return &fakeMediaStore{objects: map[string][]byte{}}
}

func (s *fakeMediaStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return s.putErr
	}
	s.objects[key] = data
	return nil
}

func (s *fakeMediaStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	s.deleted = append(s.deleted, key)
	return nil
}
