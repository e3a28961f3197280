package websocket

import "time"

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// Product lifecycle messages
	MessageTypeProductMovedToPast MessageType = "product_moved_to_past"
	MessageTypeProductTurnedOn    MessageType = "product_turned_on"

	// Machine state messages
	MessageTypeMachineStatus MessageType = "machine_status"
)

// Message represents a WebSocket message
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// ProductLifecycleData carries a product lifecycle event to dashboard
// viewers. Delivery is at-least-once; viewers tolerate duplicates.
type ProductLifecycleData struct {
	ProductID   int64  `json:"productId"`
	ProductName string `json:"productName"`
}

// MachineStatusData carries an aggregate machine status change.
type MachineStatusData struct {
	MachineID   int64  `json:"machineId"`
	MachineName string `json:"machineName"`
	Status      string `json:"status"`
}

// NewMessage creates a new message with current timestamp
func NewMessage(msgType MessageType, data interface{}) Message {
	return Message{
		Type:      msgType,
		Timestamp: time.Now(),
		Data:      data,
	}
}

func NewProductMovedToPastMessage(productID int64, productName string) Message {
	return NewMessage(MessageTypeProductMovedToPast, ProductLifecycleData{
		ProductID:   productID,
		ProductName: productName,
	})
}

func NewProductTurnedOnMessage(productID int64, productName string) Message {
	return NewMessage(MessageTypeProductTurnedOn, ProductLifecycleData{
		ProductID:   productID,
		ProductName: productName,
	})
}

func NewMachineStatusMessage(machineID int64, machineName, status string) Message {
	return NewMessage(MessageTypeMachineStatus, MachineStatusData{
		MachineID:   machineID,
		MachineName: machineName,
		Status:      status,
	})
}
