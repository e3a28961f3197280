package lifecycle

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/floortrack/floortrack/internal/storage"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var t0 = time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

type fakeStore struct {
	products []storage.Product
	machines []storage.Machine
	jobs     []storage.Job
	updates  []storage.OperatorProductUpdate

	// queued errors returned by MoveJobToPast before it succeeds
	moveErrs []error
}

func (f *fakeStore) GetProductByName(_ context.Context, name string) (*storage.Product, error) {
	for i := range f.products {
		if strings.EqualFold(f.products[i].Name, strings.TrimSpace(name)) {
			p := f.products[i]
			return &p, nil
		}
	}
	return nil, fmt.Errorf("product %q: %w", name, storage.ErrNotFound)
}

func (f *fakeStore) GetProductByID(_ context.Context, id int64) (*storage.Product, error) {
	for i := range f.products {
		if f.products[i].ID == id {
			p := f.products[i]
			return &p, nil
		}
	}
	return nil, fmt.Errorf("product %d: %w", id, storage.ErrNotFound)
}

func (f *fakeStore) GetMachineByName(_ context.Context, name string) (*storage.Machine, error) {
	for i := range f.machines {
		if f.machines[i].Name == name {
			m := f.machines[i]
			return &m, nil
		}
	}
	return nil, fmt.Errorf("machine %q: %w", name, storage.ErrNotFound)
}

func (f *fakeStore) ListJobsByProduct(_ context.Context, productID int64) ([]storage.Job, error) {
	out := make([]storage.Job, 0)
	for _, j := range f.jobs {
		if j.ProductID == productID {
			out = append(out, j)
		}
	}
	return out, nil
}

func (f *fakeStore) ListAllJobs(_ context.Context) ([]storage.Job, error) {
	return append([]storage.Job(nil), f.jobs...), nil
}

func (f *fakeStore) ListRecentUpdates(_ context.Context, limit int) ([]storage.OperatorProductUpdate, error) {
	if len(f.updates) > limit {
		return f.updates[:limit], nil
	}
	return f.updates, nil
}

func (f *fakeStore) CreateOnJob(_ context.Context, productID, machineID int64, stage string, quantity int) (*storage.Job, error) {
	var id int64 = 1
	for _, j := range f.jobs {
		if j.ID >= id {
			id = j.ID + 1
		}
	}
	job := storage.Job{
		ID: id, ProductID: productID, MachineID: machineID,
		State: "ON", Stage: stage, Quantity: quantity, CreatedAt: time.Now(),
	}
	f.jobs = append(f.jobs, job)
	return &job, nil
}

func (f *fakeStore) MoveJobToPast(_ context.Context, jobID int64) (*storage.Job, error) {
	if len(f.moveErrs) > 0 {
		err := f.moveErrs[0]
		f.moveErrs = f.moveErrs[1:]
		return nil, err
	}
	for i := range f.jobs {
		if f.jobs[i].ID != jobID {
			continue
		}
		if f.jobs[i].State != "ON" {
			return nil, fmt.Errorf("job %d: %w", jobID, storage.ErrNotLive)
		}
		now := time.Now()
		f.jobs[i].State = "OFF"
		f.jobs[i].UpdatedAt = &now
		// archive matching updates, machine OFF
		for k := range f.updates {
			if f.updates[k].Product == f.jobs[i].ProductName {
				f.updates[k].Archived = true
			}
		}
		for k := range f.machines {
			if f.machines[k].ID == f.jobs[i].MachineID {
				f.machines[k].Status = "OFF"
			}
		}
		j := f.jobs[i]
		return &j, nil
	}
	return nil, fmt.Errorf("job %d: %w", jobID, storage.ErrNotFound)
}

type fakeBroadcaster struct {
	published       []string
	turnedOn        []string
	machineStatuses []string
}

func (f *fakeBroadcaster) PublishProductMovedToPast(productID int64, productName string) {
	f.published = append(f.published, fmt.Sprintf("%d:%s", productID, productName))
}

func (f *fakeBroadcaster) PublishProductTurnedOn(productID int64, productName string) {
	f.turnedOn = append(f.turnedOn, fmt.Sprintf("%d:%s", productID, productName))
}

func (f *fakeBroadcaster) PublishMachineStatus(machineID int64, machineName, status string) {
	f.machineStatuses = append(f.machineStatuses, fmt.Sprintf("%s:%s", machineName, status))
}

func onJob(id, productID, machineID int64, machineName string, created time.Time) storage.Job {
	return storage.Job{
		ID: id, ProductID: productID, MachineID: machineID,
		ProductName: "Widget A", MachineName: machineName,
		State: "ON", Stage: "cutting", Quantity: 1, CreatedAt: created,
	}
}

func newFixture() (*fakeStore, *fakeBroadcaster, *Coordinator) {
	store := &fakeStore{
		products: []storage.Product{{ID: 1, Name: "Widget A"}},
		machines: []storage.Machine{
			{ID: 1, Name: "Cutting MC/1", Status: "ON"},
			{ID: 2, Name: "Milling 1", Status: "OFF"},
		},
	}
	bc := &fakeBroadcaster{}
	return store, bc, NewCoordinator(store, bc, zap.NewNop(), 20)
}

func TestValidateOffQuantityBounds(t *testing.T) {
	_, _, coord := newFixture()

	for _, q := range []int{0, -3, 1001} {
		v, err := coord.ValidateOff(context.Background(), "Widget A", "Cutting MC/1", q)
		require.NoError(t, err)
		assert.False(t, v.CanSetOff)
		assert.Equal(t, "Invalid quantity. Must be between 1 and 1000", v.Reason)
	}
}

func TestValidateOffUnknownProductAndMachine(t *testing.T) {
	_, _, coord := newFixture()

	v, err := coord.ValidateOff(context.Background(), "Nope", "Cutting MC/1", 1)
	require.NoError(t, err)
	assert.False(t, v.CanSetOff)
	assert.Equal(t, "Product not found in system", v.Reason)

	v, err = coord.ValidateOff(context.Background(), "Widget A", "Nope", 1)
	require.NoError(t, err)
	assert.False(t, v.CanSetOff)
	assert.Equal(t, "Machine not found in system", v.Reason)
}

func TestValidateOffNothingOn(t *testing.T) {
	_, _, coord := newFixture()

	v, err := coord.ValidateOff(context.Background(), "Widget A", "Cutting MC/1", 1)
	require.NoError(t, err)
	assert.False(t, v.CanSetOff)
	assert.Equal(t, "Please turn on the product on this machine first", v.Reason)
}

func TestValidateOffOverRequested(t *testing.T) {
	store, _, coord := newFixture()
	store.jobs = []storage.Job{onJob(1, 1, 1, "Cutting MC/1", t0)}

	v, err := coord.ValidateOff(context.Background(), "Widget A", "Cutting MC/1", 2)
	require.NoError(t, err)
	assert.False(t, v.CanSetOff)
	assert.Contains(t, v.Reason, "Only 1 quantities are available")
}

func TestValidateOffOtherMachineBlocks(t *testing.T) {
	store, _, coord := newFixture()
	store.jobs = []storage.Job{
		onJob(1, 1, 1, "Cutting MC/1", t0),
		onJob(2, 1, 2, "Milling 1", t0.Add(time.Minute)),
	}

	v, err := coord.ValidateOff(context.Background(), "Widget A", "Cutting MC/1", 1)
	require.NoError(t, err)
	assert.False(t, v.CanSetOff)
	assert.Contains(t, v.Reason, "Milling 1")
}

func TestValidateOffEligibleAndIdempotent(t *testing.T) {
	store, _, coord := newFixture()
	store.jobs = []storage.Job{onJob(1, 1, 1, "Cutting MC/1", t0)}

	// Case-insensitive name match with surrounding whitespace
	v, err := coord.ValidateOff(context.Background(), "  widget a ", "Cutting MC/1", 1)
	require.NoError(t, err)
	require.True(t, v.CanSetOff)
	assert.Equal(t, 1, v.AvailableQuantity)
	assert.Equal(t, 1, v.RequestedQuantity)
	require.NotNil(t, v.LiveProduct)
	assert.Equal(t, int64(1), v.LiveProduct.ID)
	assert.Equal(t, "Widget A", v.LiveProduct.Name)

	// Read-only: a second call with no intervening mutation agrees
	v2, err := coord.ValidateOff(context.Background(), "  widget a ", "Cutting MC/1", 1)
	require.NoError(t, err)
	assert.Equal(t, v, v2)
}

func TestMoveToPastRoundTrip(t *testing.T) {
	store, bc, coord := newFixture()
	store.jobs = []storage.Job{onJob(1, 1, 1, "Cutting MC/1", t0)}
	store.updates = []storage.OperatorProductUpdate{
		{ID: 10, Product: "Widget A", Quantity: 3, DispatchStatus: "Pending"},
		{ID: 11, Product: "Other", Quantity: 1, DispatchStatus: "Pending"},
	}

	res, err := coord.MoveToPast(context.Background(), 1, 1, "")
	require.NoError(t, err)
	require.True(t, res.Success)
	require.NotNil(t, res.Product)
	assert.Equal(t, "ON", res.Product.PreviousState)
	assert.Equal(t, "OFF", res.Product.NewState)
	assert.Equal(t, "dispatched", res.Product.TransitionReason, "reason defaults")
	assert.Equal(t, "Cutting MC/1", res.Product.Machine)

	// Store effects: job OFF, machine OFF, matching updates archived
	assert.Equal(t, "OFF", store.jobs[0].State)
	assert.Equal(t, "OFF", store.machines[0].Status)
	assert.True(t, store.updates[0].Archived)
	assert.False(t, store.updates[1].Archived, "other products untouched")

	// Subscribers were notified after the mutation
	require.Len(t, bc.published, 1)
	assert.Equal(t, "1:Widget A", bc.published[0])
	assert.Equal(t, []string{"Cutting MC/1:OFF"}, bc.machineStatuses)

	// The OFF request is not eligible a second time: the flipped row no
	// longer counts as available capacity.
	v, err := coord.ValidateOff(context.Background(), "Widget A", "Cutting MC/1", 1)
	require.NoError(t, err)
	assert.False(t, v.CanSetOff)
	assert.Equal(t, "Please turn on the product on this machine first", v.Reason)
}

func TestMoveToPastBusinessFailures(t *testing.T) {
	store, bc, coord := newFixture()
	off := onJob(1, 1, 1, "Cutting MC/1", t0)
	off.State = "OFF"
	store.jobs = []storage.Job{off}

	res, err := coord.MoveToPast(context.Background(), 1, 99, "done")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "Job not found", res.Error)

	res, err = coord.MoveToPast(context.Background(), 1, 1, "done")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "Product is not currently live", res.Error)

	assert.Empty(t, bc.published, "failed transitions publish nothing")
}

func TestMoveToPastRetriesSerializationConflict(t *testing.T) {
	store, bc, coord := newFixture()
	store.jobs = []storage.Job{onJob(1, 1, 1, "Cutting MC/1", t0)}
	store.moveErrs = []error{&pgconn.PgError{Code: "40001"}}

	res, err := coord.MoveToPast(context.Background(), 1, 1, "dispatched")
	require.NoError(t, err)
	assert.True(t, res.Success, "one conflict is retried with fresh reads")
	assert.Len(t, bc.published, 1)
}

func TestTurnOn(t *testing.T) {
	store, bc, coord := newFixture()

	job, err := coord.TurnOn(context.Background(), "Widget A", "Cutting MC/1", "cutting", 0)
	require.NoError(t, err)
	assert.Equal(t, "ON", job.State)
	assert.Equal(t, 1, job.Quantity, "quantity floors at 1")
	require.Len(t, store.jobs, 1)

	assert.Equal(t, []string{"1:Widget A"}, bc.turnedOn)
	assert.Equal(t, []string{"Cutting MC/1:ON"}, bc.machineStatuses)

	_, err = coord.TurnOn(context.Background(), "Nope", "Cutting MC/1", "cutting", 1)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestHistory(t *testing.T) {
	store, _, coord := newFixture()

	h, err := coord.History(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "unknown", h.CurrentState)
	assert.Empty(t, h.TransitionHistory)

	off := onJob(2, 1, 1, "Cutting MC/1", t0.Add(time.Hour))
	off.State = "OFF"
	store.jobs = []storage.Job{onJob(1, 1, 1, "Cutting MC/1", t0), off}

	h, err = coord.History(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, h.TransitionHistory, 2)
	assert.Equal(t, int64(2), h.TransitionHistory[0].JobID, "newest first")
	assert.Equal(t, "OFF", h.CurrentState)
}

func TestListingsDisjoint(t *testing.T) {
	store, _, coord := newFixture()
	store.products = append(store.products, storage.Product{ID: 2, Name: "Widget B"})
	offB := storage.Job{
		ID: 3, ProductID: 2, MachineID: 2, ProductName: "Widget B",
		MachineName: "Milling 1", State: "OFF", Quantity: 1, CreatedAt: t0.Add(2 * time.Hour),
	}
	store.jobs = []storage.Job{
		onJob(1, 1, 1, "Cutting MC/1", t0),
		{ID: 2, ProductID: 2, MachineID: 2, ProductName: "Widget B", MachineName: "Milling 1",
			State: "ON", Quantity: 1, CreatedAt: t0.Add(time.Hour)},
		offB,
	}

	live, err := coord.LiveProducts(context.Background())
	require.NoError(t, err)
	past, err := coord.PastProducts(context.Background())
	require.NoError(t, err)

	require.Len(t, live, 1)
	require.Len(t, past, 1)
	assert.Equal(t, "Widget A", live[0].Name)
	assert.Equal(t, "Widget B", past[0].Name)
}

func TestFeedMergesFinishedEntries(t *testing.T) {
	store, _, coord := newFixture()
	// Job id deliberately differs from the product id
	store.jobs = []storage.Job{onJob(7, 1, 1, "Cutting MC/1", t0)}
	store.updates = []storage.OperatorProductUpdate{
		{ID: 20, Product: "Widget B", Quantity: 2, DispatchStatus: "Pending", CreatedAt: t0.Add(time.Hour)},
		{ID: 21, Product: "Widget B", Quantity: 1, DispatchStatus: "Dispatched", CreatedAt: t0.Add(2 * time.Hour)},
	}

	feed, err := coord.Feed(context.Background())
	require.NoError(t, err)
	require.Len(t, feed, 2)

	// Newest first: the finished entry outranks the older live job, and
	// only the latest update per product name survives.
	assert.Equal(t, "finished", feed[0].Type)
	assert.Equal(t, "21", feed[0].ID)
	assert.Equal(t, "Dispatched", feed[0].State)
	assert.Equal(t, "live", feed[1].Type)
	assert.Equal(t, "job_7", feed[1].ID)
}
