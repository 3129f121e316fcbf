package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/jwebster45206/vitals-engine/pkg/queue"
)

// consoleCommand is a parsed line of input: either an action for the
// character or a console-local verb such as help or copy
type consoleCommand struct {
	Action *queue.Request
	Local  string
	Arg    float64
}

var errUsage = errors.New("usage")

const helpText = `Actions:
  eat <item>                  buy <merchant> <item> [qty]
  equip <item>                sell <merchant> <item> [qty]
  unequip <slot>              exercise <amount>
  rest | walk | run [sprint]  face <expression> <0-100> [minutes]
  pee | poop                  talk | bye [minutes]
Console:
  help   pause   speed <scale>   copy (snapshot JSON to clipboard)   quit`

// parseCommand turns one input line into an action or a local verb
func parseCommand(characterID uuid.UUID, input string) (consoleCommand, error) {
	fields := strings.Fields(strings.ToLower(input))
	if len(fields) == 0 {
		return consoleCommand{}, fmt.Errorf("%w: empty command", errUsage)
	}
	verb, args := strings.TrimPrefix(fields[0], "/"), fields[1:]

	newAction := func(t queue.RequestType) *queue.Request {
		return queue.NewRequest(t, characterID)
	}

	switch verb {
	case "help", "?", "copy", "pause", "quit", "exit":
		return consoleCommand{Local: verb}, nil

	case "speed":
		if len(args) != 1 {
			return consoleCommand{}, fmt.Errorf("%w: speed <scale>", errUsage)
		}
		scale, err := strconv.ParseFloat(args[0], 64)
		if err != nil || scale <= 0 {
			return consoleCommand{}, fmt.Errorf("%w: scale must be a positive number", errUsage)
		}
		return consoleCommand{Local: verb, Arg: scale}, nil

	case "eat", "equip":
		if len(args) != 1 {
			return consoleCommand{}, fmt.Errorf("%w: %s <item>", errUsage, verb)
		}
		req := newAction(queue.RequestTypeEat)
		if verb == "equip" {
			req = newAction(queue.RequestTypeEquip)
		}
		req.ItemID = args[0]
		return consoleCommand{Action: req}, nil

	case "unequip":
		if len(args) != 1 {
			return consoleCommand{}, fmt.Errorf("%w: unequip <slot>", errUsage)
		}
		req := newAction(queue.RequestTypeUnequip)
		req.Slot = args[0]
		return consoleCommand{Action: req}, nil

	case "buy", "sell":
		if len(args) < 2 || len(args) > 3 {
			return consoleCommand{}, fmt.Errorf("%w: %s <merchant> <item> [qty]", errUsage, verb)
		}
		qty := 1
		if len(args) == 3 {
			n, err := strconv.Atoi(args[2])
			if err != nil || n <= 0 {
				return consoleCommand{}, fmt.Errorf("%w: quantity must be a positive number", errUsage)
			}
			qty = n
		}
		req := newAction(queue.RequestType(verb))
		req.MerchantID = args[0]
		req.ItemID = args[1]
		req.Quantity = qty
		return consoleCommand{Action: req}, nil

	case "rest", "walk", "run":
		req := newAction(queue.RequestTypeMovement)
		req.Movement = verb
		req.Sprinting = len(args) > 0 && args[0] == "sprint"
		return consoleCommand{Action: req}, nil

	case "face":
		if len(args) < 2 || len(args) > 3 {
			return consoleCommand{}, fmt.Errorf("%w: face <expression> <0-100> [minutes]", errUsage)
		}
		value, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return consoleCommand{}, fmt.Errorf("%w: value must be a number", errUsage)
		}
		req := newAction(queue.RequestTypeExpression)
		req.Expression = args[0]
		req.Value = value
		if len(args) == 3 {
			if req.Minutes, err = strconv.ParseFloat(args[2], 64); err != nil {
				return consoleCommand{}, fmt.Errorf("%w: minutes must be a number", errUsage)
			}
		}
		return consoleCommand{Action: req}, nil

	case "exercise":
		if len(args) != 1 {
			return consoleCommand{}, fmt.Errorf("%w: exercise <amount>", errUsage)
		}
		amount, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return consoleCommand{}, fmt.Errorf("%w: amount must be a number", errUsage)
		}
		req := newAction(queue.RequestTypeExercise)
		req.Amount = amount
		return consoleCommand{Action: req}, nil

	case "talk":
		return consoleCommand{Action: newAction(queue.RequestTypeDialogueStart)}, nil

	case "bye":
		if len(args) > 1 {
			return consoleCommand{}, fmt.Errorf("%w: bye [minutes]", errUsage)
		}
		req := newAction(queue.RequestTypeDialogueEnd)
		if len(args) == 1 {
			minutes, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return consoleCommand{}, fmt.Errorf("%w: minutes must be a number", errUsage)
			}
			req.Minutes = minutes
		}
		return consoleCommand{Action: req}, nil

	case "pee":
		return consoleCommand{Action: newAction(queue.RequestTypeUrinate)}, nil
	case "poop":
		return consoleCommand{Action: newAction(queue.RequestTypeDefecate)}, nil
	}

	return consoleCommand{}, fmt.Errorf("%w: unknown command %q, try help", errUsage, verb)
}
