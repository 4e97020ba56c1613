package amqp

import (
	"encoding/json"
	"time"
)

// DonationCreatedMessage announces a committed donation. The worker loads
// the full row from SQLite by ID.
type DonationCreatedMessage struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewDonationCreatedMessage(id int64) *DonationCreatedMessage {
	return &DonationCreatedMessage{
		ID:        id,
		Timestamp: time.Now().UTC(),
	}
}

func (m *DonationCreatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func DonationCreatedMessageFromJSON(data []byte) (*DonationCreatedMessage, error) {
	var msg DonationCreatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
