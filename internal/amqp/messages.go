package amqp

import (
	"encoding/json"
	"time"
)

// DocumentSavedMessage announces that the stored document was replaced.
// It carries no payload: the document is a single blob, so consumers
// fetch the current content from the store. Replays are harmless under
// last-write-wins.
type DocumentSavedMessage struct {
	Key       string    `json:"key"`
	SavedBy   string    `json:"savedBy"`
	Timestamp time.Time `json:"timestamp"`
}

func NewDocumentSavedMessage(key, savedBy string) *DocumentSavedMessage {
	return &DocumentSavedMessage{
		Key:       key,
		SavedBy:   savedBy,
		Timestamp: time.Now(),
	}
}

func (m *DocumentSavedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func DocumentSavedMessageFromJSON(data []byte) (*DocumentSavedMessage, error) {
	var msg DocumentSavedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
