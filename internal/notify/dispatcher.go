package notify

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"

	"github.com/stayhub/stayhub-backend/internal/goroutine"
	"github.com/stayhub/stayhub-backend/internal/logger"
	"github.com/stayhub/stayhub-backend/internal/models"
)

var (
	// ErrQueueFull возвращается, когда очередь отправки переполнена.
	ErrQueueFull = errors.New("notify: очередь отправки переполнена")
	// ErrDispatcherClosed возвращается после остановки диспетчера.
	ErrDispatcherClosed = errors.New("notify: диспетчер остановлен")
	// ErrEmptyTask возвращается для задачи без сообщения.
	ErrEmptyTask = errors.New("notify: пустая задача")
)

// EmailMessage - письмо для отправки.
type EmailMessage struct {
	Subject   string
	PlainBody string
	HTMLBody  string
	To        []string
}

// SMSMessage - SMS для отправки.
type SMSMessage struct {
	Body string
	From string
	To   string
}

// SMSResult - ответ SMS-провайдера.
type SMSResult struct {
	Status    string
	MessageID string
}

// EmailSender - транспорт писем.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// SMSSender - транспорт SMS.
type SMSSender interface {
	Send(ctx context.Context, msg SMSMessage) (SMSResult, error)
}

// TaskDescriptor описывает одну задачу отправки. Заполняется ровно одно из
// полей Email/SMS.
type TaskDescriptor struct {
	ID         uuid.UUID
	Email      *EmailMessage
	SMS        *SMSMessage
	EnqueuedAt time.Time
}

// TaskResult - итог выполнения задачи.
type TaskResult struct {
	Delivered         bool
	ProviderMessageID string
	Err               error
}

// TaskHandle позволяет дождаться итога задачи с таймаутом.
type TaskHandle struct {
	ID   uuid.UUID
	done chan TaskResult
}

// Wait блокируется до итога задачи или отмены контекста.
// false означает, что итог не успел прийти: вызывающий трактует это как
// неуспешную отправку, сами доставки при этом продолжаются в фоне.
func (h *TaskHandle) Wait(ctx context.Context) (TaskResult, bool) {
	select {
	case res := <-h.done:
		return res, true
	case <-ctx.Done():
		return TaskResult{}, false
	}
}

// Dispatcher принимает задачи отправки уведомлений.
//
// Семантика at-least-once: задача из очереди выполняется с повторами на
// транзиентных ошибках транспорта, поэтому обработчики обязаны быть
// идемпотентными (повторное письмо несёт ту же ссылку, повторная SMS
// перезаписывает тот же код).
type Dispatcher interface {
	Submit(task TaskDescriptor) (*TaskHandle, error)
}

type queuedTask struct {
	task   TaskDescriptor
	handle *TaskHandle
}

// QueueDispatcher - диспетчер с bounded-очередью и пулом воркеров.
type QueueDispatcher struct {
	email EmailSender
	sms   SMSSender

	queue chan queuedTask

	// Мягкий таймаут одной попытки отправки.
	taskTimeout time.Duration
	// Задачи старше этого возраста выбрасываются, а не отправляются с опозданием.
	taskExpiry time.Duration

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// Options настраивает QueueDispatcher.
type Options struct {
	Workers     int
	QueueSize   int
	TaskTimeout time.Duration
	TaskExpiry  time.Duration
}

// NewQueueDispatcher создаёт диспетчер и запускает воркеры.
func NewQueueDispatcher(email EmailSender, sms SMSSender, opts Options) *QueueDispatcher {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.TaskTimeout <= 0 {
		opts.TaskTimeout = 10 * time.Second
	}
	if opts.TaskExpiry <= 0 {
		opts.TaskExpiry = 12 * time.Hour
	}

	d := &QueueDispatcher{
		email:       email,
		sms:         sms,
		queue:       make(chan queuedTask, opts.QueueSize),
		taskTimeout: opts.TaskTimeout,
		taskExpiry:  opts.TaskExpiry,
	}

	for i := 0; i < opts.Workers; i++ {
		d.wg.Add(1)
		goroutine.SafeGo(d.worker)
	}

	return d
}

// Submit ставит задачу в очередь и возвращает хэндл для ожидания итога.
func (d *QueueDispatcher) Submit(task TaskDescriptor) (*TaskHandle, error) {
	if task.Email == nil && task.SMS == nil {
		return nil, ErrEmptyTask
	}
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	if task.EnqueuedAt.IsZero() {
		task.EnqueuedAt = time.Now()
	}

	// Постановка в очередь идёт под мьютексом: Close закрывает канал под
	// тем же мьютексом, поэтому отправка в закрытый канал исключена.
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrDispatcherClosed
	}

	handle := &TaskHandle{ID: task.ID, done: make(chan TaskResult, 1)}

	select {
	case d.queue <- queuedTask{task: task, handle: handle}:
		return handle, nil
	default:
		return nil, ErrQueueFull
	}
}

// Close останавливает приём задач и дожидается воркеров.
func (d *QueueDispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
}

func (d *QueueDispatcher) worker() {
	defer d.wg.Done()

	for qt := range d.queue {
		res := d.runTask(qt.task)

		// Канал буферизован на один итог, второй никто не пишет.
		select {
		case qt.handle.done <- res:
		default:
		}
	}
}

// runTask выполняет задачу, не выпуская наружу ни ошибок транспорта, ни паник.
func (d *QueueDispatcher) runTask(task TaskDescriptor) (res TaskResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.WithFields(map[string]interface{}{
				"task_id": task.ID,
				"panic":   fmt.Sprint(r),
			}).Errorf("notify: паника в задаче отправки\n%s", debug.Stack())
			res = TaskResult{Err: fmt.Errorf("notify: паника в задаче: %v", r)}
		}
	}()

	// Протухшие задачи не отправляем: уведомление, пришедшее спустя
	// полдня после запроса, только путает пользователя.
	if age := time.Since(task.EnqueuedAt); age > d.taskExpiry {
		logger.Log.WithFields(map[string]interface{}{
			"task_id": task.ID,
			"age":     age.String(),
		}).Warn("notify: задача протухла и выброшена")
		return TaskResult{Err: fmt.Errorf("notify: задача старше %s", d.taskExpiry)}
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.taskTimeout)
	defer cancel()

	switch {
	case task.Email != nil:
		return d.runEmail(ctx, task)
	case task.SMS != nil:
		return d.runSMS(ctx, task)
	}
	return TaskResult{Err: ErrEmptyTask}
}

func (d *QueueDispatcher) runEmail(ctx context.Context, task TaskDescriptor) TaskResult {
	err := retry.Do(
		func() error { return d.email.Send(ctx, *task.Email) },
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		logger.Log.WithFields(map[string]interface{}{
			"task_id": task.ID,
			"error":   err.Error(),
		}).Error("notify: письмо не отправлено")
		return TaskResult{Err: err}
	}

	return TaskResult{Delivered: true}
}

func (d *QueueDispatcher) runSMS(ctx context.Context, task TaskDescriptor) TaskResult {
	var result SMSResult
	err := retry.Do(
		func() error {
			var sendErr error
			result, sendErr = d.sms.Send(ctx, *task.SMS)
			return sendErr
		},
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		logger.Log.WithFields(map[string]interface{}{
			"task_id": task.ID,
			"error":   err.Error(),
		}).Error("notify: SMS не отправлена")
		return TaskResult{Err: err}
	}

	// Провайдер ответил, но статус невыгодный: это тоже неуспех.
	if models.IsProviderFailure(result.Status) {
		logger.Log.WithFields(map[string]interface{}{
			"task_id": task.ID,
			"status":  result.Status,
		}).Error("notify: провайдер не доставил SMS")
		return TaskResult{
			ProviderMessageID: result.MessageID,
			Err:               fmt.Errorf("notify: статус провайдера %q", result.Status),
		}
	}

	return TaskResult{
		Delivered:         true,
		ProviderMessageID: result.MessageID,
	}
}
