package identity

import (
	"context"
	"log/slog"
	"sync"
)

// Task is one collaborator call in a fan-out.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// RunAll executes tasks concurrently and waits for all of them. Each task is
// isolated: an error or panic is logged and swallowed so the remaining
// collaborators always run. Collaborator failures never block a session
// transition, so RunAll returns nothing.
func RunAll(ctx context.Context, logger *slog.Logger, tasks []Task) {
	if logger == nil {
		logger = slog.Default()
	}

	var wg sync.WaitGroup
	for _, task := range tasks {
		wg.Add(1)
		go func(t Task) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					logger.Error("identity task panicked", "task", t.Name, "panic", r)
				}
			}()
			if err := t.Run(ctx); err != nil {
				logger.Warn("identity task failed", "task", t.Name, "error", err)
			}
		}(task)
	}
	wg.Wait()
}
