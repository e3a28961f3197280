package storage

import (
	"time"
)

type Product struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"` // case-insensitive unique
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Machine struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"` // ON / OFF, mirrors jobs on it
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Job is one recorded state transition of a product on a machine. Each ON
// and each OFF is normally its own row; a degraded path flips state on an
// existing row instead, with updated_at marking the OFF instant.
type Job struct {
	ID          int64      `json:"id"`
	ProductID   int64      `json:"product_id"`
	MachineID   int64      `json:"machine_id"`
	State       string     `json:"state"`
	Stage       string     `json:"stage"`
	Quantity    int        `json:"quantity"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
	ProductName string     `json:"product_name"` // joined
	MachineName string     `json:"machine_name"` // joined
}

// OperatorProductUpdate is a finished-goods ledger entry. Product is
// matched by name, not by foreign key.
type OperatorProductUpdate struct {
	ID             int64     `json:"id"`
	Product        string    `json:"product"`
	Quantity       int       `json:"quantity"`
	DispatchStatus string    `json:"dispatch_status"`
	Archived       bool      `json:"archived"`
	ProcessSteps   string    `json:"process_steps"`
	CreatedAt      time.Time `json:"created_at"`
}

type Operator struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"-"` // Never expose in JSON
	ProfileImage string    `json:"profile_image"`
	CreatedAt    time.Time `json:"created_at"`
}
