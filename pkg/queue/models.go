package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RequestType identifies the type of action in the queue
type RequestType string

const (
	// RequestTypeEat consumes a food item from the character's inventory
	RequestTypeEat RequestType = "eat"

	// RequestTypeEquip wears an item from the inventory
	RequestTypeEquip RequestType = "equip"

	// RequestTypeUnequip returns the item in a slot to the inventory
	RequestTypeUnequip RequestType = "unequip"

	// RequestTypeExpression drives a facial expression morph
	RequestTypeExpression RequestType = "expression"

	// RequestTypeMovement changes the locomotion state
	RequestTypeMovement RequestType = "movement"

	// RequestTypeExercise adds muscle tone
	RequestTypeExercise RequestType = "exercise"

	RequestTypeUrinate  RequestType = "urinate"
	RequestTypeDefecate RequestType = "defecate"

	// RequestTypeDialogueStart and RequestTypeDialogueEnd bracket a
	// conversation. Expressions set in between are undone when it ends.
	RequestTypeDialogueStart RequestType = "dialogue_start"
	RequestTypeDialogueEnd   RequestType = "dialogue_end"

	// RequestTypeBuy and RequestTypeSell trade items with a merchant
	RequestTypeBuy  RequestType = "buy"
	RequestTypeSell RequestType = "sell"
)

var requestTypes = []RequestType{
	RequestTypeEat, RequestTypeEquip, RequestTypeUnequip, RequestTypeExpression,
	RequestTypeMovement, RequestTypeExercise, RequestTypeUrinate, RequestTypeDefecate,
	RequestTypeDialogueStart, RequestTypeDialogueEnd, RequestTypeBuy, RequestTypeSell,
}

// ErrInvalidRequest is returned by Validate
var ErrInvalidRequest = errors.New("invalid request")

// Request represents one queued character action
type Request struct {
	RequestID   string      `json:"request_id"`
	Type        RequestType `json:"type"`
	CharacterID uuid.UUID   `json:"character_id"`

	// Eat / equip / trade
	ItemID     string `json:"item_id,omitempty"`
	MerchantID string `json:"merchant_id,omitempty"`
	Quantity   int    `json:"quantity,omitempty"`

	// Unequip
	Slot string `json:"slot,omitempty"`

	// Expression / dialogue end
	Expression string  `json:"expression,omitempty"`
	Value      float64 `json:"value,omitempty"`
	Minutes    float64 `json:"minutes,omitempty"`

	// Movement
	Movement  string `json:"movement,omitempty"`
	Sprinting bool   `json:"sprinting,omitempty"`

	// Exercise
	Amount float64 `json:"amount,omitempty"`

	EnqueuedAt time.Time `json:"enqueued_at"`
}

// NewRequest creates a request with a fresh ID
func NewRequest(t RequestType, characterID uuid.UUID) *Request {
	return &Request{
		RequestID:   uuid.New().String(),
		Type:        t,
		CharacterID: characterID,
		EnqueuedAt:  time.Now(),
	}
}

// Validate checks that the request carries the fields its type needs
func (r *Request) Validate() error {
	if r.CharacterID == uuid.Nil {
		return fmt.Errorf("%w: character_id is required", ErrInvalidRequest)
	}
	switch r.Type {
	case RequestTypeEat, RequestTypeEquip:
		if r.ItemID == "" {
			return fmt.Errorf("%w: %s requires item_id", ErrInvalidRequest, r.Type)
		}
	case RequestTypeUnequip:
		if r.Slot == "" {
			return fmt.Errorf("%w: unequip requires slot", ErrInvalidRequest)
		}
	case RequestTypeExpression:
		if r.Expression == "" {
			return fmt.Errorf("%w: expression requires expression name", ErrInvalidRequest)
		}
	case RequestTypeMovement:
		if r.Movement == "" {
			return fmt.Errorf("%w: movement requires movement", ErrInvalidRequest)
		}
	case RequestTypeExercise:
		if r.Amount <= 0 {
			return fmt.Errorf("%w: exercise requires a positive amount", ErrInvalidRequest)
		}
	case RequestTypeBuy, RequestTypeSell:
		if r.ItemID == "" || r.MerchantID == "" {
			return fmt.Errorf("%w: %s requires item_id and merchant_id", ErrInvalidRequest, r.Type)
		}
		if r.Quantity <= 0 {
			return fmt.Errorf("%w: %s requires a positive quantity", ErrInvalidRequest, r.Type)
		}
	case RequestTypeUrinate, RequestTypeDefecate, RequestTypeDialogueStart, RequestTypeDialogueEnd:
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidRequest, r.Type)
	}
	return nil
}

// RequestTypes returns every supported action type
func RequestTypes() []RequestType {
	return append([]RequestType(nil), requestTypes...)
}

// MarshalJSON serializes the request to JSON for Redis storage
func (r *Request) MarshalJSON() ([]byte, error) {
	type Alias Request
	return json.Marshal(&struct {
		CharacterID string `json:"character_id"`
		*Alias
	}{
		CharacterID: r.CharacterID.String(),
		Alias:       (*Alias)(r),
	})
}

// UnmarshalJSON deserializes the request from JSON in Redis
func (r *Request) UnmarshalJSON(data []byte) error {
	type Alias Request
	aux := &struct {
		CharacterID string `json:"character_id"`
		*Alias
	}{
		Alias: (*Alias)(r),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	characterID, err := uuid.Parse(aux.CharacterID)
	if err != nil {
		return err
	}

	r.CharacterID = characterID
	return nil
}

// ToJSON converts the request to JSON bytes for Redis
func (r *Request) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}

// FromJSON parses a request from JSON bytes
func FromJSON(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, err
	}
	return &req, nil
}
