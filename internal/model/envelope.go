package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Envelope struct {
	ID         string    `json:"id"`
	DeviceID   string    `json:"device_id"`
	DeviceName string    `json:"device_name"`
	Timestamp  time.Time `json:"timestamp"`
	Reading    Reading   `json:"reading"`
}

func NewEnvelope(deviceID, deviceName string, reading Reading) *Envelope {
	return &Envelope{
		ID:         uuid.New().String(),
		DeviceID:   deviceID,
		DeviceName: deviceName,
		Timestamp:  time.Now().UTC(),
		Reading:    reading,
	}
}

func (e *Envelope) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func EnvelopeFromJSON(data []byte) (*Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
