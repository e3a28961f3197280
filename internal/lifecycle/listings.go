package lifecycle

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/floortrack/floortrack/internal/tracking"
)

const dateLayout = "2006-01-02"

// ListedProduct is one row of the live or past listing, projected from the
// latest job per product.
type ListedProduct struct {
	ID        int64     `json:"id"`
	JobID     int64     `json:"-"` // latest job backing this row, feeds the dropdown id
	Name      string    `json:"name"`
	Process   string    `json:"process"`
	State     string    `json:"state"`
	Date      string    `json:"date"`
	CreatedAt time.Time `json:"createdAt"`
}

// FeedItem is one row of the combined live/finished feed.
type FeedItem struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Process   string    `json:"process"`
	State     string    `json:"state"`
	Date      string    `json:"date"`
	CreatedAt time.Time `json:"createdAt"`
	Type      string    `json:"type"` // live | finished
}

// listLatest reduces all jobs to the latest per product and keeps those
// matching the predicate. Live and past listings share this reduction, so
// the two sets are disjoint by construction.
func (c *Coordinator) listLatest(ctx context.Context, keep func(tracking.State) bool) ([]ListedProduct, error) {
	jobs, err := c.store.ListAllJobs(ctx)
	if err != nil {
		return nil, err
	}

	latest := tracking.LatestJobPerProduct(toTrackingJobs(jobs))

	names := make(map[int64]string, len(jobs))
	for _, j := range jobs {
		names[j.ProductID] = j.ProductName
	}

	out := make([]ListedProduct, 0, len(latest))
	for pid, j := range latest {
		if !keep(j.State) {
			continue
		}
		out = append(out, ListedProduct{
			ID:        pid,
			JobID:     j.ID,
			Name:      names[pid],
			Process:   j.MachineName,
			State:     string(j.State),
			Date:      j.CreatedAt.Format(dateLayout),
			CreatedAt: j.CreatedAt,
		})
	}
	sort.Slice(out, func(i, k int) bool {
		return out[i].CreatedAt.After(out[k].CreatedAt)
	})
	return out, nil
}

// LiveProducts lists products whose latest job is ON, newest first.
func (c *Coordinator) LiveProducts(ctx context.Context) ([]ListedProduct, error) {
	return c.listLatest(ctx, func(s tracking.State) bool { return s == tracking.StateOn })
}

// PastProducts lists products whose latest job is OFF, newest first.
func (c *Coordinator) PastProducts(ctx context.Context) ([]ListedProduct, error) {
	return c.listLatest(ctx, func(s tracking.State) bool { return s == tracking.StateOff })
}

// Feed merges the non-OFF latest jobs with the most recent finished-goods
// entries (latest per product name, bounded window), sorted by recency.
func (c *Coordinator) Feed(ctx context.Context) ([]FeedItem, error) {
	live, err := c.listLatest(ctx, func(s tracking.State) bool { return s != tracking.StateOff })
	if err != nil {
		return nil, err
	}

	items := make([]FeedItem, 0, len(live))
	for _, p := range live {
		items = append(items, FeedItem{
			ID:        fmt.Sprintf("job_%d", p.JobID),
			Name:      p.Name,
			Process:   p.Process,
			State:     p.State,
			Date:      p.Date,
			CreatedAt: p.CreatedAt,
			Type:      "live",
		})
	}

	updates, err := c.store.ListRecentUpdates(ctx, c.feedLimit)
	if err != nil {
		return nil, err
	}

	// Latest update per product name
	type latestUpdate struct {
		id        int64
		state     string
		createdAt time.Time
	}
	latest := make(map[string]latestUpdate)
	for _, u := range updates {
		cur, ok := latest[u.Product]
		if !ok || u.CreatedAt.After(cur.createdAt) {
			latest[u.Product] = latestUpdate{id: u.ID, state: u.DispatchStatus, createdAt: u.CreatedAt}
		}
	}
	for name, u := range latest {
		items = append(items, FeedItem{
			ID:        fmt.Sprintf("%d", u.id),
			Name:      name,
			Process:   "Finished",
			State:     u.state,
			Date:      u.createdAt.Format(dateLayout),
			CreatedAt: u.createdAt,
			Type:      "finished",
		})
	}

	sort.Slice(items, func(i, k int) bool {
		return items[i].CreatedAt.After(items[k].CreatedAt)
	})
	return items, nil
}
