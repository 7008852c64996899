package service

import (
	"context"

	"github.com/locodavid123/parcial1/internal/store"
	"github.com/locodavid123/parcial1/pkg/logger"
	"go.uber.org/zap"
)

// undoLog records compensating steps for writes done on a backend that cannot roll back
type undoLog struct {
	steps []undoStep
}

type undoStep struct {
	name string
	fn   func(ctx context.Context) error
}

// Add registers a step; steps run in reverse order
func (u *undoLog) Add(name string, fn func(ctx context.Context) error) {
	u.steps = append(u.steps, undoStep{name: name, fn: fn})
}

func (u *undoLog) run(ctx context.Context) {
	log := logger.FromContext(ctx)
	for i := len(u.steps) - 1; i >= 0; i-- {
		step := u.steps[i]
		if err := step.fn(ctx); err != nil {
			log.Error("Compensation step failed", zap.String("step", step.name), zap.Error(err))
			continue
		}
		log.Warn("Compensation step applied", zap.String("step", step.name))
	}
}

// runAtomically runs fn as one unit of work. When the backend cannot roll
// back, the steps fn recorded are replayed in reverse after a failure.
func runAtomically(ctx context.Context, s store.Store, fn func(ctx context.Context, tx store.Repositories, undo *undoLog) error) error {
	undo := &undoLog{}
	err := s.RunInTx(ctx, func(ctx context.Context, tx store.Repositories) error {
		return fn(ctx, tx, undo)
	})
	if err != nil && !s.Atomic() {
		undo.run(context.WithoutCancel(ctx))
	}
	return err
}
