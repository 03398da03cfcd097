package json

import (
	"fmt"
	"time"

	analyst "github.com/ledgerline/analyst"
)

// messageDTO is the JSON representation of a Message with a type discriminator.
type messageDTO struct {
	Type      string         `json:"type"`
	Content   []contentBlock `json:"content"`
	Timestamp time.Time      `json:"timestamp"`
	Status    *string        `json:"status,omitempty"`
	RequestID *string        `json:"request_id,omitempty"`
}

func marshalMessage(msg analyst.Message) (messageDTO, error) {
	switch m := msg.(type) {
	case analyst.UserMessage:
		blocks, err := marshalContentBlocks(m.Content)
		if err != nil {
			return messageDTO{}, err
		}
		return messageDTO{
			Type:      "user",
			Content:   blocks,
			Timestamp: m.Timestamp,
		}, nil
	case analyst.AnalystMessage:
		blocks, err := marshalContentBlocks(m.Content)
		if err != nil {
			return messageDTO{}, err
		}
		return messageDTO{
			Type:      "analyst",
			Content:   blocks,
			Timestamp: m.Timestamp,
			Status:    &m.Status,
			RequestID: &m.RequestID,
		}, nil
	default:
		return messageDTO{}, fmt.Errorf("unknown message type: %T", msg)
	}
}

func unmarshalMessage(dto messageDTO) (analyst.Message, error) {
	blocks, err := unmarshalContentBlocks(dto.Content)
	if err != nil {
		return nil, err
	}
	switch dto.Type {
	case "user":
		return analyst.UserMessage{
			Content:   blocks,
			Timestamp: dto.Timestamp,
		}, nil
	case "analyst":
		var status, requestID string
		if dto.Status != nil {
			status = *dto.Status
		}
		if dto.RequestID != nil {
			requestID = *dto.RequestID
		}
		return analyst.AnalystMessage{
			Content:   blocks,
			Status:    status,
			RequestID: requestID,
			Timestamp: dto.Timestamp,
		}, nil
	default:
		return nil, fmt.Errorf("unknown message type: %q", dto.Type)
	}
}
