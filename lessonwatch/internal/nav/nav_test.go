package nav

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestTrackerEdgeTriggered(t *testing.T) {
	tests := []struct {
		name  string
		paths []string
		exits int
	}{
		{
			name:  "one lesson one exit",
			paths: []string{"/learn", "/lesson", "/lesson", "/learn"},
			exits: 1,
		},
		{
			name:  "practice counts as lesson flow",
			paths: []string{"/practice", "/practice", "/learn"},
			exits: 1,
		},
		{
			name:  "staying inside never triggers",
			paths: []string{"/lesson", "/lesson/2", "/practice"},
			exits: 0,
		},
		{
			name:  "staying outside never triggers",
			paths: []string{"/learn", "/shop", "/learn"},
			exits: 0,
		},
		{
			name:  "two sessions two exits",
			paths: []string{"/lesson", "/learn", "/practice", "/learn"},
			exits: 2,
		},
		{
			name:  "lesson to practice is not an exit",
			paths: []string{"/lesson", "/practice", "/learn"},
			exits: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker := NewTracker("/learn")
			exits := 0
			for _, p := range tt.paths {
				if tracker.Observe(p) {
					exits++
				}
			}
			if exits != tt.exits {
				t.Fatalf("exits = %d, want %d", exits, tt.exits)
			}
		})
	}
}

func TestMonitorFiresOncePerExit(t *testing.T) {
	var mu sync.Mutex
	paths := []string{"/lesson/1", "/lesson/1", "/learn", "/learn"}
	i := 0
	path := func(context.Context) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		p := paths[i]
		if i < len(paths)-1 {
			i++
		}
		return p, nil
	}

	exits := make(chan struct{}, 4)
	m := NewMonitor(path, 5*time.Millisecond, func(context.Context) {
		exits <- struct{}{}
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	select {
	case <-exits:
	case <-time.After(time.Second):
		t.Fatal("exit never detected")
	}

	select {
	case <-exits:
		t.Fatal("exit reported more than once")
	case <-time.After(50 * time.Millisecond):
	}
}
