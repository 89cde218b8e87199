package job

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"github.com/sebastianleon1-sys/Zerby2/internal/lib/email"
	"github.com/sebastianleon1-sys/Zerby2/internal/model"
)

// Task type names. Asynq routes on these strings.
const (
	TaskWelcome        = "email:welcome"
	TaskRequestCreated = "email:request_created"
	TaskRequestUpdated = "email:request_updated"
	TaskGeoRefresh     = "geo:refresh"
)

// GeoRefreshMaxRetry bounds how often an unresolved address is retried.
const GeoRefreshMaxRetry = 5

type WelcomeEmailPayload struct {
	To     string `json:"to"`
	Nombre string `json:"nombre"`
	Tipo   string `json:"tipo"`
}

type RequestCreatedPayload struct {
	To string `json:"to"`
	email.RequestCreated
}

type RequestUpdatedPayload struct {
	To string `json:"to"`
	email.RequestUpdated
}

// GeoRefreshPayload identifies the account whose address should be geocoded
// again. Direccion is the address at enqueue time; if the account changed it
// since, the task does nothing.
type GeoRefreshPayload struct {
	AccountType model.AccountType `json:"account_type"`
	AccountID   int64             `json:"account_id"`
	Direccion   string            `json:"direccion"`
}

func newTask(typename string, payload any, opts ...asynq.Option) (*asynq.Task, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(typename, b, opts...), nil
}

// NewWelcomeEmailTask builds the welcome email task.
func NewWelcomeEmailTask(p WelcomeEmailPayload) (*asynq.Task, error) {
	return newTask(TaskWelcome, p,
		asynq.MaxRetry(3),
		asynq.Queue(QueueDefault),
		asynq.Timeout(30*time.Second),
	)
}

// NewRequestCreatedTask notifies a provider about a new request. Providers
// act on these, so they go to the critical queue.
func NewRequestCreatedTask(p RequestCreatedPayload) (*asynq.Task, error) {
	return newTask(TaskRequestCreated, p,
		asynq.MaxRetry(5),
		asynq.Queue(QueueCritical),
		asynq.Timeout(30*time.Second),
	)
}

func NewRequestUpdatedTask(p RequestUpdatedPayload) (*asynq.Task, error) {
	return newTask(TaskRequestUpdated, p,
		asynq.MaxRetry(5),
		asynq.Queue(QueueDefault),
		asynq.Timeout(30*time.Second),
	)
}

// NewGeoRefreshTask retries geocoding a minute later, on the low queue.
func NewGeoRefreshTask(p GeoRefreshPayload) (*asynq.Task, error) {
	return newTask(TaskGeoRefresh, p,
		asynq.MaxRetry(GeoRefreshMaxRetry),
		asynq.Queue(QueueLow),
		asynq.ProcessIn(time.Minute),
		asynq.Timeout(30*time.Second),
	)
}

// EnqueueWelcomeEmail queues the welcome email for a new account.
func (j *JobService) EnqueueWelcomeEmail(ctx context.Context, to, nombre string, tipo model.AccountType) error {
	task, err := NewWelcomeEmailTask(WelcomeEmailPayload{To: to, Nombre: nombre, Tipo: string(tipo)})
	if err != nil {
		return err
	}
	return j.enqueue(ctx, task)
}

func (j *JobService) EnqueueRequestCreated(ctx context.Context, to string, d email.RequestCreated) error {
	task, err := NewRequestCreatedTask(RequestCreatedPayload{To: to, RequestCreated: d})
	if err != nil {
		return err
	}
	return j.enqueue(ctx, task)
}

func (j *JobService) EnqueueRequestUpdated(ctx context.Context, to string, d email.RequestUpdated) error {
	task, err := NewRequestUpdatedTask(RequestUpdatedPayload{To: to, RequestUpdated: d})
	if err != nil {
		return err
	}
	return j.enqueue(ctx, task)
}

func (j *JobService) EnqueueGeoRefresh(ctx context.Context, tipo model.AccountType, id int64, direccion string) error {
	task, err := NewGeoRefreshTask(GeoRefreshPayload{AccountType: tipo, AccountID: id, Direccion: direccion})
	if err != nil {
		return err
	}
	return j.enqueue(ctx, task)
}
