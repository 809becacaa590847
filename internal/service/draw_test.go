package service

import (
	"errors"
	"testing"
)

func TestEnqueueReportsQueueFull(t *testing.T) {
	s := &DrawService{jobs: make(chan drawJob, 1)}
	if err := s.enqueue(drawJob{}); err != nil {
		t.Fatalf("enqueue into empty queue: %v", err)
	}
	if err := s.enqueue(drawJob{}); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
}
