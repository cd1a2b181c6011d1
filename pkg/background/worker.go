package background

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"golang.org/x/sync/errgroup"

	"dispatch/pkg/logger"
)

// Task периодическая фоновая задача.
type Task interface {
	// TTL интервал между запусками.
	TTL() time.Duration

	// Do выполняет одну итерацию задачи.
	Do(context.Context) error

	// Info человекочитаемое имя задачи для логов.
	Info() string
}

type workerLogger interface {
	Info(msg string, fields ...logger.Field)
	Warn(msg string, fields ...logger.Field)
	Error(msg string, fields ...logger.Field)
	With(fields ...logger.Field) logger.Logger
}

// Worker гоняет набор фоновых задач до отмены контекста.
type Worker struct {
	log   workerLogger
	tasks []Task
}

// New прогревает задачи и запускает их периодическое выполнение.
// Прогрев: каждая задача выполняется один раз синхронно, ошибка любой из
// них отменяет старт. Дальше каждая задача живёт в своей горутине по
// тикеру с шагом TTL. Паника внутри задачи гасится и логируется, задача
// продолжает ходить по расписанию.
func New(ctx context.Context, log workerLogger, tasks []Task) (*Worker, error) {
	worker := &Worker{
		log:   log,
		tasks: tasks,
	}
	if len(tasks) == 0 {
		return worker, nil
	}

	warmup, warmupCtx := errgroup.WithContext(ctx)
	for _, task := range tasks {
		warmup.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					stack := debug.Stack()
					err = fmt.Errorf("init panic: %v\n%s", r, stack)
					log.Error("Task panic during init",
						logger.NewField("task", task.Info()),
						logger.NewField("recover", r),
						logger.NewField("stack", stack),
					)
				}
			}()

			log.Info("Initializing",
				logger.NewField("task", task.Info()),
			)
			return task.Do(warmupCtx)
		})
	}
	if err := warmup.Wait(); err != nil {
		return nil, fmt.Errorf("failed to initialize tasks: %w", err)
	}

	for _, task := range tasks {
		go worker.runPeriodically(ctx, task)
	}
	return worker, nil
}

func (w *Worker) runPeriodically(ctx context.Context, task Task) {
	ttl := task.TTL()
	if ttl <= 0 {
		w.log.Warn("invalid TTL, skipping periodic execution",
			logger.NewField("task", task.Info()),
			logger.NewField("TTL", ttl),
		)
		return
	}

	w.log.Info("Starting periodic execution",
		logger.NewField("task", task.Info()),
		logger.NewField("TTL", ttl),
	)

	ticker := time.NewTicker(ttl)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Warn("Stopping task (context cancelled)",
				logger.NewField("task", task.Info()),
			)
			return
		case <-ticker.C:
			w.runOnce(ctx, task)
		}
	}
}

func (w *Worker) runOnce(ctx context.Context, task Task) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("Background task panic",
				logger.NewField("task", task.Info()),
				logger.NewField("recover", r),
				logger.NewField("stack", debug.Stack()),
			)
		}
	}()

	if err := task.Do(ctx); err != nil {
		w.log.Error("Background task failed",
			logger.NewField("task", task.Info()),
			logger.NewField("error", err),
		)
	}
}
