package worker

import (
	"context"
	"fmt"

	"github.com/jwebster45206/vitals-engine/pkg/inventory"
	"github.com/jwebster45206/vitals-engine/pkg/queue"
	"github.com/jwebster45206/vitals-engine/pkg/vitals"
)

// apply runs one action against the session. A returned error means the
// action was rejected and nothing changed.
func (w *Worker) apply(req *queue.Request) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if req.CharacterID != w.session.ID {
		return fmt.Errorf("%w: action for character %s", queue.ErrInvalidRequest, req.CharacterID)
	}

	s := w.session
	ch := s.Character
	switch req.Type {
	case queue.RequestTypeEat:
		return s.Inventory.Consume(ch, req.ItemID)

	case queue.RequestTypeEquip:
		return s.Equipment.Equip(s.Inventory, req.ItemID)

	case queue.RequestTypeUnequip:
		return s.Equipment.Unequip(s.Inventory, inventory.Slot(req.Slot))

	case queue.RequestTypeExpression:
		s.SetExpression(req.Expression, req.Value, req.Minutes)

	case queue.RequestTypeDialogueStart:
		s.StartDialogue()

	case queue.RequestTypeDialogueEnd:
		return s.EndDialogue(req.Minutes)

	case queue.RequestTypeMovement:
		m, err := vitals.ParseMovement(req.Movement)
		if err != nil {
			return err
		}
		ch.SetMovement(m, req.Sprinting)

	case queue.RequestTypeExercise:
		ch.Exercise(req.Amount)

	case queue.RequestTypeUrinate:
		ch.Urinate()

	case queue.RequestTypeDefecate:
		ch.Defecate()

	case queue.RequestTypeBuy, queue.RequestTypeSell:
		return w.trade(req)

	default:
		return fmt.Errorf("unknown request type: %s", req.Type)
	}
	return nil
}

func (w *Worker) trade(req *queue.Request) error {
	ctx, cancel := context.WithTimeout(w.ctx, storeTimeout)
	defer cancel()

	if w.store == nil {
		return fmt.Errorf("no merchant source configured")
	}
	m, err := w.session.Merchant(ctx, w.store, req.MerchantID)
	if err != nil {
		return err
	}

	if req.Type == queue.RequestTypeBuy {
		paid, err := m.Buy(w.session.Inventory, req.ItemID, req.Quantity)
		if err != nil {
			return err
		}
		w.log.Info("Bought items", "merchant", req.MerchantID, "item", req.ItemID, "quantity", req.Quantity, "gold", paid)
		return nil
	}

	got, err := m.Sell(w.session.Inventory, req.ItemID, req.Quantity)
	if err != nil {
		return err
	}
	w.log.Info("Sold items", "merchant", req.MerchantID, "item", req.ItemID, "quantity", req.Quantity, "gold", got)
	return nil
}
