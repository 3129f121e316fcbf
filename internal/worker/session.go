package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/vitals-engine/pkg/clock"
	"github.com/jwebster45206/vitals-engine/pkg/inventory"
	"github.com/jwebster45206/vitals-engine/pkg/morph"
	"github.com/jwebster45206/vitals-engine/pkg/storage"
	"github.com/jwebster45206/vitals-engine/pkg/trade"
	"github.com/jwebster45206/vitals-engine/pkg/vitals"
)

// ErrNoDialogue is returned when ending a dialogue that never started
var ErrNoDialogue = errors.New("no dialogue in progress")

// expressionShapes are the facial blend shapes every body carries
var expressionShapes = []string{"smile", "frown", "brow_raise", "jaw_open", "eyes_closed"}

// SessionConfig is what a session needs beyond its saved record
type SessionConfig struct {
	TimeScale    float64
	Capacity     int
	StartingGold int
	Vitals       vitals.Config
}

// Session is one simulated character with its clock, body and belongings
type Session struct {
	ID        uuid.UUID
	Clock     *clock.GameClock
	Body      *morph.MemorySurface
	Character *vitals.Character
	Inventory *inventory.Inventory
	Equipment *inventory.Equipment

	catalog   *inventory.Catalog
	merchants map[string]*trade.Merchant
	dialogue  *vitals.ExpressionSession
	createdAt time.Time
	log       *slog.Logger
}

// BodyShapes returns every blend shape a body needs for cfg and catalog:
// vitals-driven morphs, expressions and anything an item modifies
func BodyShapes(cfg vitals.Config, catalog *inventory.Catalog) []string {
	shapes := cfg.MorphNames()
	shapes = append(shapes, expressionShapes...)
	for _, it := range catalog.Items() {
		for _, m := range it.Modifiers {
			shapes = append(shapes, m.Morph)
		}
		shapes = append(shapes, it.Shapes...)
	}
	slices.Sort(shapes)
	return slices.Compact(shapes)
}

// NewSession builds a character. A nil rec starts a fresh character;
// otherwise vitals, sim time, movement, inventory and loadout are restored.
func NewSession(id uuid.UUID, catalog *inventory.Catalog, cfg SessionConfig, rec *storage.CharacterRecord, log *slog.Logger) (*Session, error) {
	if catalog == nil {
		return nil, fmt.Errorf("catalog cannot be nil")
	}
	log = log.With("character_id", id.String())

	clk := clock.NewGameClock(cfg.TimeScale)
	if rec != nil {
		// processes are scheduled from the clock's current time
		clk.Set(rec.Vitals.SimTime)
	}

	body := morph.NewMemorySurface("body", BodyShapes(cfg.Vitals, catalog)...)
	ch, err := vitals.New(cfg.Vitals, clk, body, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create character: %w", err)
	}

	s := &Session{
		ID:        id,
		Clock:     clk,
		Body:      body,
		Character: ch,
		Inventory: inventory.New(catalog, cfg.Capacity).WithGold(cfg.StartingGold),
		Equipment: inventory.NewEquipment(ch, log),
		catalog:   catalog,
		merchants: make(map[string]*trade.Merchant),
		createdAt: time.Now(),
		log:       log,
	}

	if rec == nil {
		log.Info("Created new character")
		return s, nil
	}

	ch.Restore(rec.Vitals)
	if rec.Movement != "" {
		m, err := vitals.ParseMovement(rec.Movement)
		if err != nil {
			log.Warn("Ignoring saved movement", "movement", rec.Movement, "error", err)
		} else {
			ch.SetMovement(m, rec.Sprinting)
		}
	}
	if err := s.Inventory.Restore(rec.Inventory, rec.Gold); err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to restore inventory: %w", err)
	}
	s.Equipment.Restore(catalog, rec.Loadout)
	if !rec.CreatedAt.IsZero() {
		s.createdAt = rec.CreatedAt
	}
	log.Info("Restored character", "sim_time", rec.Vitals.SimTime, "items", len(rec.Inventory))
	return s, nil
}

// Record captures the session for storage
func (s *Session) Record() *storage.CharacterRecord {
	m, sprinting := s.Character.Movement()
	return &storage.CharacterRecord{
		ID:        s.ID,
		Vitals:    s.Character.Snapshot(),
		Movement:  m.String(),
		Sprinting: sprinting,
		Inventory: s.Inventory.Stacks(),
		Gold:      s.Inventory.Gold(),
		Loadout:   s.Equipment.Loadout(),
		Morphs:    s.Morphs(),
		CreatedAt: s.createdAt,
	}
}

// Morphs returns the effective value of every morph with a contribution
func (s *Session) Morphs() map[string]float64 {
	names := s.Character.MorphNames()
	out := make(map[string]float64, len(names))
	for _, name := range names {
		out[name] = s.Character.EffectiveMorph(name)
	}
	return out
}

// Surfaces returns the body followed by the mesh of every worn item with shapes
func (s *Session) Surfaces() []*morph.MemorySurface {
	return append([]*morph.MemorySurface{s.Body}, s.Equipment.Surfaces()...)
}

// SetExpression moves a facial expression. During a dialogue the change is
// recorded so EndDialogue can undo it.
func (s *Session) SetExpression(name string, value, minutes float64) {
	if s.dialogue != nil {
		s.dialogue.Set(name, value, minutes)
		return
	}
	s.Character.SetFacialExpression(name, value, minutes)
}

// StartDialogue begins recording expression changes. Starting again while a
// dialogue is open keeps the original recording.
func (s *Session) StartDialogue() {
	if s.dialogue != nil {
		return
	}
	s.dialogue = vitals.NewExpressionSession(s.Character)
	s.log.Debug("Dialogue started")
}

// EndDialogue reverts every expression changed since StartDialogue over minutes
func (s *Session) EndDialogue(minutes float64) error {
	if s.dialogue == nil {
		return ErrNoDialogue
	}
	touched := s.dialogue.Touched()
	s.dialogue.Restore(minutes)
	s.dialogue = nil
	s.log.Debug("Dialogue ended", "expressions_restored", touched)
	return nil
}

// InDialogue reports whether a dialogue is open
func (s *Session) InDialogue() bool {
	return s.dialogue != nil
}

// Merchant returns a merchant, stocking it from store on first use
func (s *Session) Merchant(ctx context.Context, store storage.Storage, id string) (*trade.Merchant, error) {
	if m, ok := s.merchants[id]; ok {
		return m, nil
	}
	spec, err := store.GetMerchantSpec(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load merchant %s: %w", id, err)
	}
	m, err := trade.NewMerchant(spec, s.catalog, s.log)
	if err != nil {
		return nil, fmt.Errorf("failed to stock merchant %s: %w", id, err)
	}
	s.merchants[id] = m
	return m, nil
}

// Merchants returns the IDs of merchants met this session
func (s *Session) Merchants() []string {
	return slices.Sorted(maps.Keys(s.merchants))
}

// Close stops the character's simulation
func (s *Session) Close() {
	s.Character.Close()
}
