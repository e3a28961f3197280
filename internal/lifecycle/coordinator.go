package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/floortrack/floortrack/internal/storage"
	"github.com/floortrack/floortrack/internal/tracking"
	"go.uber.org/zap"
)

const (
	minOffQuantity = 1
	maxOffQuantity = 1000

	defaultTransitionReason = "dispatched"
)

// Store is the slice of the job store the coordinator needs. Satisfied by
// *storage.PostgresClient.
type Store interface {
	GetProductByName(ctx context.Context, name string) (*storage.Product, error)
	GetProductByID(ctx context.Context, id int64) (*storage.Product, error)
	GetMachineByName(ctx context.Context, name string) (*storage.Machine, error)
	ListJobsByProduct(ctx context.Context, productID int64) ([]storage.Job, error)
	ListAllJobs(ctx context.Context) ([]storage.Job, error)
	ListRecentUpdates(ctx context.Context, limit int) ([]storage.OperatorProductUpdate, error)
	CreateOnJob(ctx context.Context, productID, machineID int64, stage string, quantity int) (*storage.Job, error)
	MoveJobToPast(ctx context.Context, jobID int64) (*storage.Job, error)
}

// Broadcaster publishes lifecycle events to connected dashboard viewers.
// Publishing is fire-and-forget; delivery is at-least-once and subscribers
// tolerate duplicates.
type Broadcaster interface {
	PublishProductMovedToPast(productID int64, productName string)
	PublishProductTurnedOn(productID int64, productName string)
	PublishMachineStatus(machineID int64, machineName, status string)
}

// Coordinator orchestrates product state transitions: it validates with the
// transition engine, applies the store mutation and notifies subscribers.
type Coordinator struct {
	store       Store
	broadcaster Broadcaster
	logger      *zap.Logger
	feedLimit   int
}

func NewCoordinator(store Store, broadcaster Broadcaster, logger *zap.Logger, feedLimit int) *Coordinator {
	if feedLimit <= 0 {
		feedLimit = 20
	}
	return &Coordinator{
		store:       store,
		broadcaster: broadcaster,
		logger:      logger,
		feedLimit:   feedLimit,
	}
}

// toTrackingJobs maps store rows into the engine's job view.
func toTrackingJobs(jobs []storage.Job) []tracking.Job {
	out := make([]tracking.Job, 0, len(jobs))
	for _, j := range jobs {
		tj := tracking.Job{
			ID:          j.ID,
			ProductID:   j.ProductID,
			MachineID:   j.MachineID,
			MachineName: j.MachineName,
			State:       tracking.State(j.State),
			Stage:       j.Stage,
			Quantity:    j.Quantity,
			CreatedAt:   j.CreatedAt,
		}
		if j.UpdatedAt != nil {
			tj.UpdatedAt = *j.UpdatedAt
		}
		out = append(out, tj)
	}
	return out
}

// OffValidation is the result of the OFF admission check. Business-rule
// rejections are carried in CanSetOff/Reason, never as errors.
type OffValidation struct {
	CanSetOff         bool          `json:"canSetOff"`
	Reason            string        `json:"reason"`
	AvailableQuantity int           `json:"availableQuantity,omitempty"`
	RequestedQuantity int           `json:"requestedQuantity,omitempty"`
	LiveProduct       *LiveSnapshot `json:"liveProduct,omitempty"`
}

// LiveSnapshot is the representative ON job returned with an eligible
// validation.
type LiveSnapshot struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Machine   string    `json:"machine"`
	State     string    `json:"state"`
	CreatedAt time.Time `json:"createdAt"`
}

func rejected(reason string) *OffValidation {
	return &OffValidation{CanSetOff: false, Reason: reason}
}

// ValidateOff runs the admission-control checks for turning a product OFF
// on a machine. Read-only and safe to call repeatedly for pre-validation;
// MoveToPast independently re-verifies the job is still ON under a row
// lock before committing.
func (c *Coordinator) ValidateOff(ctx context.Context, productName, machineName string, requestedQuantity int) (*OffValidation, error) {
	if requestedQuantity < minOffQuantity || requestedQuantity > maxOffQuantity {
		return rejected("Invalid quantity. Must be between 1 and 1000"), nil
	}

	product, err := c.store.GetProductByName(ctx, productName)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return rejected("Product not found in system"), nil
		}
		return nil, err
	}

	machine, err := c.store.GetMachineByName(ctx, machineName)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return rejected("Machine not found in system"), nil
		}
		return nil, err
	}

	jobs, err := c.store.ListJobsByProduct(ctx, product.ID)
	if err != nil {
		return nil, err
	}
	history := toTrackingJobs(jobs)

	available := tracking.AvailableOnQuantity(history, machine.ID)
	if available == 0 {
		return rejected("Please turn on the product on this machine first"), nil
	}

	if requestedQuantity > available {
		return rejected(fmt.Sprintf(
			"Cannot turn OFF %d quantities. Only %d quantities are available in ON state on this machine.",
			requestedQuantity, available)), nil
	}

	// Single-machine-at-a-time invariant
	if others := tracking.OnMachineNames(history, machine.ID); len(others) > 0 {
		return rejected(fmt.Sprintf(
			"Product is ON on other machine(s): %s. Please turn it OFF there first.",
			strings.Join(others, ", "))), nil
	}

	onJobs := tracking.OnJobs(history, machine.ID)
	return &OffValidation{
		CanSetOff: true,
		Reason: fmt.Sprintf("Product can be turned OFF. %d quantities available, %d requested.",
			available, requestedQuantity),
		AvailableQuantity: available,
		RequestedQuantity: requestedQuantity,
		LiveProduct: &LiveSnapshot{
			ID:        onJobs[0].ID,
			Name:      product.Name,
			Machine:   machine.Name,
			State:     string(tracking.StateOn),
			CreatedAt: onJobs[0].CreatedAt,
		},
	}, nil
}

// TransitionResult is the outcome of MoveToPast. Business-rule failures set
// Success false with a reason; only store faults surface as errors.
type TransitionResult struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
	Product *TransitionInfo `json:"product,omitempty"`
}

type TransitionInfo struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	PreviousState    string    `json:"previousState"`
	NewState         string    `json:"newState"`
	Machine          string    `json:"machine"`
	TransitionReason string    `json:"transitionReason"`
	TransitionTime   time.Time `json:"transitionTime"`
}

// MoveToPast flips an ON job to OFF, archives the product's finished-goods
// updates and sets the machine OFF as one logical unit, then notifies
// subscribers. A serialization conflict is retried once with fresh reads
// before surfacing.
func (c *Coordinator) MoveToPast(ctx context.Context, productID, jobID int64, reason string) (*TransitionResult, error) {
	if reason == "" {
		reason = defaultTransitionReason
	}

	job, err := c.store.MoveJobToPast(ctx, jobID)
	if storage.IsSerializationFailure(err) {
		c.logger.Warn("Transition hit serialization conflict, retrying",
			zap.Int64("job_id", jobID))
		job, err = c.store.MoveJobToPast(ctx, jobID)
	}
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return &TransitionResult{Success: false, Error: "Job not found"}, nil
		}
		if errors.Is(err, storage.ErrNotLive) {
			return &TransitionResult{Success: false, Error: "Product is not currently live"}, nil
		}
		return nil, err
	}

	if job.ProductID != productID {
		// The mutation already committed against the job's real product;
		// report it rather than pretending nothing happened.
		c.logger.Warn("Transition requested with mismatched product id",
			zap.Int64("requested_product_id", productID),
			zap.Int64("job_product_id", job.ProductID))
	}

	c.logger.Info("Product moved from live to past",
		zap.Int64("product_id", job.ProductID),
		zap.String("product", job.ProductName),
		zap.String("machine", job.MachineName),
		zap.Int64("job_id", job.ID),
		zap.String("reason", reason))

	// Fire-and-forget after the commit; the hub drops on a full buffer
	// rather than blocking the mutating request.
	c.broadcaster.PublishProductMovedToPast(job.ProductID, job.ProductName)
	c.broadcaster.PublishMachineStatus(job.MachineID, job.MachineName, string(tracking.StateOff))

	return &TransitionResult{
		Success: true,
		Message: fmt.Sprintf("Product moved from live to past successfully. Reason: %s", reason),
		Product: &TransitionInfo{
			ID:               job.ProductID,
			Name:             job.ProductName,
			PreviousState:    string(tracking.StateOn),
			NewState:         string(tracking.StateOff),
			Machine:          job.MachineName,
			TransitionReason: reason,
			TransitionTime:   time.Now(),
		},
	}, nil
}

// TurnOn is the operator "set ON" counterpart: it appends an ON job and
// flips the machine status. It deliberately does not enforce the
// single-machine invariant; the OFF path does.
func (c *Coordinator) TurnOn(ctx context.Context, productName, machineName, stage string, quantity int) (*storage.Job, error) {
	if quantity < 1 {
		quantity = 1
	}

	product, err := c.store.GetProductByName(ctx, productName)
	if err != nil {
		return nil, err
	}
	machine, err := c.store.GetMachineByName(ctx, machineName)
	if err != nil {
		return nil, err
	}

	job, err := c.store.CreateOnJob(ctx, product.ID, machine.ID, stage, quantity)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Product turned ON",
		zap.Int64("product_id", product.ID),
		zap.String("product", product.Name),
		zap.String("machine", machine.Name),
		zap.Int("quantity", quantity))

	c.broadcaster.PublishProductTurnedOn(product.ID, product.Name)
	c.broadcaster.PublishMachineStatus(machine.ID, machine.Name, string(tracking.StateOn))

	return job, nil
}

type HistoryEntry struct {
	JobID          int64     `json:"jobId"`
	State          string    `json:"state"`
	Machine        string    `json:"machine"`
	TransitionTime time.Time `json:"transitionTime"`
	Stage          string    `json:"stage"`
}

type TransitionHistory struct {
	ProductID         int64          `json:"productId"`
	TransitionHistory []HistoryEntry `json:"transitionHistory"`
	CurrentState      string         `json:"currentState"`
}

// History returns all transitions for a product, newest first. CurrentState
// is the state of the first entry, or unknown for an empty history.
func (c *Coordinator) History(ctx context.Context, productID int64) (*TransitionHistory, error) {
	jobs, err := c.store.ListJobsByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	entries := make([]HistoryEntry, 0, len(jobs))
	for i := len(jobs) - 1; i >= 0; i-- {
		j := jobs[i]
		entries = append(entries, HistoryEntry{
			JobID:          j.ID,
			State:          j.State,
			Machine:        j.MachineName,
			TransitionTime: j.CreatedAt,
			Stage:          j.Stage,
		})
	}

	state := string(tracking.StateUnknown)
	if len(entries) > 0 {
		state = entries[0].State
	}

	return &TransitionHistory{
		ProductID:         productID,
		TransitionHistory: entries,
		CurrentState:      state,
	}, nil
}

// ProductDetail is the per-product view: display duration, net quantity and
// the full history.
type ProductDetail struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	State       string         `json:"state"`
	Duration    string         `json:"duration"`
	NetQuantity int            `json:"netQuantity"`
	History     []HistoryEntry `json:"history"`
}

// Detail builds the per-product detail view the work panel shows.
func (c *Coordinator) Detail(ctx context.Context, productID int64) (*ProductDetail, error) {
	product, err := c.store.GetProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	history, err := c.History(ctx, productID)
	if err != nil {
		return nil, err
	}

	jobs, err := c.store.ListJobsByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	tjobs := toTrackingJobs(jobs)

	return &ProductDetail{
		ID:          product.ID,
		Name:        product.Name,
		State:       string(tracking.LatestState(tjobs)),
		Duration:    tracking.ComputeDuration(tjobs, time.Now()).Display(),
		NetQuantity: tracking.NetQuantity(tjobs),
		History:     history.TransitionHistory,
	}, nil
}
