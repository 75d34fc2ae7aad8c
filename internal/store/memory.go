package store

import (
	"context"
	"sync"
	"time"
)

// Memory is a process-local store, used by default and in tests.
type Memory struct {
	mu      sync.RWMutex
	resumes []Resume
}

func NewMemory(seed ...Resume) *Memory {
	return &Memory{resumes: append([]Resume(nil), seed...)}
}

func (m *Memory) SaveResume(_ context.Context, r *Resume) error {
	if err := prepare(r, time.Now()); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.resumes {
		if m.resumes[i].ID == r.ID {
			m.resumes[i] = *r
			return nil
		}
	}
	m.resumes = append(m.resumes, *r)
	return nil
}

func (m *Memory) ListResumes(context.Context) ([]Resume, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Resume{}, m.resumes...), nil
}

func (m *Memory) ListResumeTexts(ctx context.Context) ([]string, error) {
	resumes, _ := m.ListResumes(ctx)
	return texts(resumes), nil
}

func (m *Memory) Close() error { return nil }
