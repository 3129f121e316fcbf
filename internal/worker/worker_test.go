package worker

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/vitals-engine/pkg/inventory"
	"github.com/jwebster45206/vitals-engine/pkg/queue"
	"github.com/jwebster45206/vitals-engine/pkg/storage"
	"github.com/jwebster45206/vitals-engine/pkg/trade"
	"github.com/jwebster45206/vitals-engine/pkg/vitals"
)

var noopLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))

func testCatalog(t *testing.T) *inventory.Catalog {
	t.Helper()
	c, err := inventory.NewCatalog(
		inventory.Item{ID: "bread", Name: "Bread", Kind: inventory.KindFood, Price: 4, MaxStack: 10,
			Food: &inventory.Food{Volume: 250, Calories: 650, MinutesToEat: 5}},
		inventory.Item{ID: "ore", Name: "Ore", Kind: inventory.KindMaterial, Price: 8, MaxStack: 10},
		inventory.Item{ID: "belt", Name: "Belt", Kind: inventory.KindEquipment, Price: 15, Slot: inventory.SlotAccessory,
			Modifiers: []vitals.Modifier{{Morph: "torso_thin", Value: 12}, {Morph: "waist_cinch", Value: 30}}},
	)
	require.NoError(t, err)
	return c
}

func testStore(t *testing.T) *storage.MemoryStorage {
	t.Helper()
	store := storage.NewMemoryStorage()
	store.SetCatalog(testCatalog(t))
	store.AddMerchantSpec(&trade.MerchantSpec{
		ID: "baker", Name: "Hilde", Gold: 100, Capacity: 4,
		Stock: []inventory.Stack{{ItemID: "bread", Quantity: 5}},
	})
	return store
}

func sessionConfig() SessionConfig {
	return SessionConfig{TimeScale: 60, Capacity: 6, StartingGold: 50, Vitals: vitals.DefaultConfig()}
}

type fakeActions struct {
	mu      sync.Mutex
	pending []*queue.Request
}

func (f *fakeActions) push(reqs ...*queue.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = append(f.pending, reqs...)
}

func (f *fakeActions) Drain(ctx context.Context, characterID uuid.UUID, limit int) ([]*queue.Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := min(limit, len(f.pending))
	out := f.pending[:n]
	f.pending = f.pending[n:]
	return out, nil
}

type published struct {
	kind      string
	requestID string
	errMsg    string
}

type fakePublisher struct {
	mu         sync.Mutex
	events     []published
	vitals     []vitals.Snapshot
	conditions []vitals.Condition
}

func (f *fakePublisher) PublishActionApplied(ctx context.Context, id uuid.UUID, requestID, actionType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, published{kind: "applied", requestID: requestID})
	return nil
}

func (f *fakePublisher) PublishActionFailed(ctx context.Context, id uuid.UUID, requestID, actionType, errorMsg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, published{kind: "failed", requestID: requestID, errMsg: errorMsg})
	return nil
}

func (f *fakePublisher) PublishVitalsUpdated(ctx context.Context, id uuid.UUID, snap vitals.Snapshot, morphs map[string]float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.vitals = append(f.vitals, snap)
	return nil
}

func (f *fakePublisher) Notifier(ctx context.Context, id uuid.UUID) vitals.Notifier {
	return vitals.NotifierFunc(func(c vitals.Condition) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.conditions = append(f.conditions, c)
	})
}

func (f *fakePublisher) outcome(requestID string) published {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.events {
		if e.requestID == requestID {
			return e
		}
	}
	return published{}
}

func newTestWorker(t *testing.T, settings Settings) (*Worker, *fakeActions, *fakePublisher, *storage.MemoryStorage) {
	t.Helper()
	store := testStore(t)
	s, err := NewSession(uuid.New(), testCatalog(t), sessionConfig(), nil, noopLogger)
	require.NoError(t, err)
	t.Cleanup(s.Close)

	actions := &fakeActions{}
	pub := &fakePublisher{}
	w := New(s, actions, store, pub, nil, settings, noopLogger, "test-worker")
	return w, actions, pub, store
}

func action(w *Worker, t queue.RequestType, mutate func(*queue.Request)) *queue.Request {
	req := queue.NewRequest(t, w.session.ID)
	if mutate != nil {
		mutate(req)
	}
	return req
}

func TestBodyShapes(t *testing.T) {
	shapes := BodyShapes(vitals.DefaultConfig(), testCatalog(t))
	assert.Contains(t, shapes, "belly_stuffed")
	assert.Contains(t, shapes, "smile")
	assert.Contains(t, shapes, "waist_cinch")
	assert.IsIncreasing(t, shapes)
}

func TestNewSession_Fresh(t *testing.T) {
	s, err := NewSession(uuid.New(), testCatalog(t), sessionConfig(), nil, noopLogger)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, 50, s.Inventory.Gold())
	assert.Equal(t, time.Duration(0), s.Clock.Now())
	assert.GreaterOrEqual(t, s.Body.BlendShapeIndex("waist_cinch"), 0)

	_, err = NewSession(uuid.New(), nil, sessionConfig(), nil, noopLogger)
	assert.Error(t, err)
}

func TestNewSession_RestoresRecord(t *testing.T) {
	id := uuid.New()
	rec := &storage.CharacterRecord{
		ID:        id,
		Vitals:    vitals.Snapshot{Weight: 71, Calories: 7700, Muscles: 60, Health: 80, Hydration: 90, Stamina: 100, PeristalticVelocity: 100, SimTime: 2 * time.Hour},
		Movement:  "walk",
		Inventory: []inventory.Stack{{ItemID: "bread", Quantity: 2}},
		Gold:      7,
		Loadout:   map[inventory.Slot]string{inventory.SlotAccessory: "belt"},
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	s, err := NewSession(id, testCatalog(t), sessionConfig(), rec, noopLogger)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, 2*time.Hour, s.Clock.Now())
	assert.InDelta(t, 71.0, s.Character.State().Weight, 1e-9)
	m, _ := s.Character.Movement()
	assert.Equal(t, vitals.MovementWalk, m)
	assert.Equal(t, 2, s.Inventory.Count("bread"))
	assert.Equal(t, 7, s.Inventory.Gold())
	worn, ok := s.Equipment.Worn(inventory.SlotAccessory)
	require.True(t, ok)
	assert.Equal(t, "belt", worn.ID)
	assert.InDelta(t, 30.0, s.Character.EffectiveMorph("waist_cinch"), 1e-9)

	out := s.Record()
	assert.Equal(t, rec.CreatedAt, out.CreatedAt)
	assert.Equal(t, "walk", out.Movement)
	assert.Equal(t, "belt", out.Loadout[inventory.SlotAccessory])
	assert.Equal(t, 2*time.Hour, out.Vitals.SimTime)
}

func TestNewSession_ResumesMealAcrossRestart(t *testing.T) {
	id := uuid.New()
	s, err := NewSession(id, testCatalog(t), sessionConfig(), nil, noopLogger)
	require.NoError(t, err)
	require.NoError(t, s.Character.UpdateStatsOnEating(vitals.EatEvent{
		Volume: 250, HealthImpact: -10, Duration: 5 * time.Minute,
	}))
	s.Clock.Advance(3 * time.Second) // three simulated minutes; the health ramp is done
	s.Character.Update()
	rec := s.Record()
	s.Close()

	resumed, err := NewSession(id, testCatalog(t), sessionConfig(), rec, noopLogger)
	require.NoError(t, err)
	defer resumed.Close()

	out := resumed.Record().Vitals
	require.Len(t, out.Transitions, 1)
	assert.Equal(t, "fullness", out.Transitions[0].Stat)
	assert.InDelta(t, 250.0, out.Transitions[0].To, 1e-9)
	assert.Equal(t, 2*time.Minute, out.Transitions[0].Remaining)
	require.Len(t, out.Impulses, 1)
	assert.Equal(t, rec.Vitals.Impulses[0], out.Impulses[0])
	assert.True(t, out.DecayPaused)
}

func TestNewSession_BadInventory(t *testing.T) {
	rec := &storage.CharacterRecord{Inventory: []inventory.Stack{{ItemID: "pie", Quantity: 1}}}
	_, err := NewSession(uuid.New(), testCatalog(t), sessionConfig(), rec, noopLogger)
	assert.ErrorIs(t, err, inventory.ErrUnknownItem)
}

func TestFrame_AdvancesScaledClock(t *testing.T) {
	w, _, _, _ := newTestWorker(t, Settings{})
	w.Frame(500 * time.Millisecond)
	assert.Equal(t, 30*time.Second, w.session.Clock.Now())
}

func TestFrame_AppliesActions(t *testing.T) {
	w, actions, pub, _ := newTestWorker(t, Settings{})
	s := w.session

	buy := action(w, queue.RequestTypeBuy, func(r *queue.Request) { r.MerchantID = "baker"; r.ItemID = "bread"; r.Quantity = 2 })
	eat := action(w, queue.RequestTypeEat, func(r *queue.Request) { r.ItemID = "bread" })
	run := action(w, queue.RequestTypeMovement, func(r *queue.Request) { r.Movement = "run"; r.Sprinting = true })
	smile := action(w, queue.RequestTypeExpression, func(r *queue.Request) { r.Expression = "smile"; r.Value = 80 })
	lift := action(w, queue.RequestTypeExercise, func(r *queue.Request) { r.Amount = 5 })
	actions.push(buy, eat, run, smile, lift)

	w.Frame(100 * time.Millisecond)

	for _, req := range []*queue.Request{buy, eat, run, smile, lift} {
		assert.Equal(t, "applied", pub.outcome(req.RequestID).kind, "action %s", req.Type)
	}
	assert.Equal(t, 1, s.Inventory.Count("bread"))
	assert.Equal(t, 42, s.Inventory.Gold())
	assert.Equal(t, []string{"baker"}, s.Merchants())

	m, sprinting := s.Character.Movement()
	assert.Equal(t, vitals.MovementRun, m)
	assert.True(t, sprinting)
	assert.InDelta(t, 55.0, s.Character.State().EffectiveMuscles(), 1e-9)
	assert.InDelta(t, 80.0, s.Character.ExpressionValue("smile"), 1e-9)

	w.Frame(time.Second)
	assert.Greater(t, s.Character.Stat("fullness"), 0.0)
}

func TestFrame_EquipAndUnequip(t *testing.T) {
	w, actions, pub, _ := newTestWorker(t, Settings{})
	s := w.session
	require.NoError(t, s.Inventory.Add("belt", 1))

	equip := action(w, queue.RequestTypeEquip, func(r *queue.Request) { r.ItemID = "belt" })
	actions.push(equip)
	w.Frame(100 * time.Millisecond)
	assert.Equal(t, "applied", pub.outcome(equip.RequestID).kind)
	assert.InDelta(t, 30.0, s.Character.EffectiveMorph("waist_cinch"), 1e-9)
	assert.InDelta(t, 30.0, s.Body.Weight("waist_cinch"), 1e-9)

	unequip := action(w, queue.RequestTypeUnequip, func(r *queue.Request) { r.Slot = "accessory" })
	actions.push(unequip)
	w.Frame(100 * time.Millisecond)
	assert.Equal(t, "applied", pub.outcome(unequip.RequestID).kind)
	assert.Equal(t, 1, s.Inventory.Count("belt"))
	assert.Zero(t, s.Character.EffectiveMorph("waist_cinch"))
}

func TestFrame_DialogueRestoresExpressions(t *testing.T) {
	w, actions, pub, _ := newTestWorker(t, Settings{})
	ch := w.session.Character

	frown := action(w, queue.RequestTypeExpression, func(r *queue.Request) { r.Expression = "frown"; r.Value = 20 })
	start := action(w, queue.RequestTypeDialogueStart, nil)
	smile := action(w, queue.RequestTypeExpression, func(r *queue.Request) { r.Expression = "smile"; r.Value = 80 })
	scowl := action(w, queue.RequestTypeExpression, func(r *queue.Request) { r.Expression = "frown"; r.Value = 60 })
	actions.push(frown, start, smile, scowl)
	w.Frame(100 * time.Millisecond)

	assert.True(t, w.session.InDialogue())
	assert.InDelta(t, 80.0, ch.ExpressionValue("smile"), 1e-9)
	assert.InDelta(t, 60.0, ch.ExpressionValue("frown"), 1e-9)

	end := action(w, queue.RequestTypeDialogueEnd, func(r *queue.Request) { r.Minutes = 0.5 })
	actions.push(end)
	w.Frame(100 * time.Millisecond)

	for _, req := range []*queue.Request{frown, start, smile, scowl, end} {
		assert.Equal(t, "applied", pub.outcome(req.RequestID).kind, "action %s", req.Type)
	}
	assert.False(t, w.session.InDialogue())
	assert.Zero(t, ch.ExpressionValue("smile"))
	assert.InDelta(t, 20.0, ch.ExpressionValue("frown"), 1e-9)

	// with no dialogue open, expressions stick and ending is rejected
	again := action(w, queue.RequestTypeDialogueEnd, nil)
	actions.push(action(w, queue.RequestTypeExpression, func(r *queue.Request) { r.Expression = "smile"; r.Value = 40 }), again)
	w.Frame(100 * time.Millisecond)
	assert.Equal(t, "failed", pub.outcome(again.RequestID).kind)
	assert.Contains(t, pub.outcome(again.RequestID).errMsg, ErrNoDialogue.Error())
	assert.InDelta(t, 40.0, ch.ExpressionValue("smile"), 1e-9)
}

func TestSession_SurfacesIncludeWornMeshes(t *testing.T) {
	catalog, err := inventory.NewCatalog(
		inventory.Item{ID: "corset", Name: "Corset", Kind: inventory.KindEquipment, Price: 30, Slot: inventory.SlotBody,
			Modifiers: []vitals.Modifier{{Morph: "waist_cinch", Value: 25}},
			Shapes:    []string{"waist_cinch", "belly_stuffed"}},
	)
	require.NoError(t, err)
	assert.Contains(t, BodyShapes(vitals.DefaultConfig(), catalog), "waist_cinch")

	s, err := NewSession(uuid.New(), catalog, sessionConfig(), nil, noopLogger)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Inventory.Add("corset", 1))
	require.NoError(t, s.Equipment.Equip(s.Inventory, "corset"))

	surfaces := s.Surfaces()
	require.Len(t, surfaces, 2)
	assert.Same(t, s.Body, surfaces[0])
	assert.Equal(t, "corset", surfaces[1].Name())
	assert.InDelta(t, 25.0, surfaces[1].Weight("waist_cinch"), 1e-9)

	rec := s.Record()
	restored, err := NewSession(s.ID, catalog, sessionConfig(), rec, noopLogger)
	require.NoError(t, err)
	defer restored.Close()
	require.Len(t, restored.Surfaces(), 2)
	assert.InDelta(t, 25.0, restored.Surfaces()[1].Weight("waist_cinch"), 1e-9)
}

func TestFrame_RejectedActions(t *testing.T) {
	w, actions, pub, _ := newTestWorker(t, Settings{})
	require.NoError(t, w.session.Inventory.Add("ore", 1))

	notFood := action(w, queue.RequestTypeEat, func(r *queue.Request) { r.ItemID = "ore" })
	badMove := action(w, queue.RequestTypeMovement, func(r *queue.Request) { r.Movement = "fly" })
	noMerchant := action(w, queue.RequestTypeBuy, func(r *queue.Request) { r.MerchantID = "ghost"; r.ItemID = "bread"; r.Quantity = 1 })
	emptySlot := action(w, queue.RequestTypeUnequip, func(r *queue.Request) { r.Slot = "head" })
	stranger := queue.NewRequest(queue.RequestTypeUrinate, uuid.New())
	invalid := action(w, queue.RequestTypeEat, nil)
	actions.push(notFood, badMove, noMerchant, emptySlot, stranger, invalid)

	w.Frame(100 * time.Millisecond)

	for _, req := range []*queue.Request{notFood, badMove, noMerchant, emptySlot, stranger, invalid} {
		got := pub.outcome(req.RequestID)
		assert.Equal(t, "failed", got.kind, "action %s", req.Type)
		assert.NotEmpty(t, got.errMsg)
	}
	assert.Contains(t, pub.outcome(notFood.RequestID).errMsg, "not edible")
	assert.Equal(t, 1, w.session.Inventory.Count("ore"))
}

func TestFrame_BoundedBatch(t *testing.T) {
	w, actions, pub, _ := newTestWorker(t, Settings{MaxActionsPerFrame: 2})
	for range 3 {
		actions.push(action(w, queue.RequestTypeUrinate, nil))
	}

	w.Frame(100 * time.Millisecond)
	assert.Len(t, pub.events, 2)
	w.Frame(100 * time.Millisecond)
	assert.Len(t, pub.events, 3)
}

func TestFrame_CheckpointsOnSaveInterval(t *testing.T) {
	w, _, pub, store := newTestWorker(t, Settings{SaveInterval: time.Second})
	ctx := context.Background()

	w.Frame(600 * time.Millisecond)
	rec, err := store.LoadCharacter(ctx, w.session.ID)
	require.NoError(t, err)
	assert.Nil(t, rec)

	w.Frame(600 * time.Millisecond)
	rec, err = store.LoadCharacter(ctx, w.session.ID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 72*time.Second, rec.Vitals.SimTime)
	assert.Equal(t, 50, rec.Gold)
	assert.Len(t, pub.vitals, 1)

	// counter restarts after a checkpoint
	w.Frame(600 * time.Millisecond)
	assert.Len(t, pub.vitals, 1)
}

func TestWorker_NotifierWired(t *testing.T) {
	store := testStore(t)
	cfg := sessionConfig()
	cfg.Vitals.StartHealth = 1
	cfg.Vitals.DehydrationDamagePerMinute = 5
	cfg.Vitals.StartHydration = 0
	s, err := NewSession(uuid.New(), testCatalog(t), cfg, nil, noopLogger)
	require.NoError(t, err)
	defer s.Close()

	pub := &fakePublisher{}
	w := New(s, &fakeActions{}, store, pub, nil, Settings{}, noopLogger, "")
	for range 30 {
		w.Frame(100 * time.Millisecond)
	}

	pub.mu.Lock()
	defer pub.mu.Unlock()
	assert.Equal(t, []vitals.Condition{vitals.ConditionHealthDepleted}, pub.conditions)
}

func TestWorker_CharacterLock(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	s, err := NewSession(uuid.New(), testCatalog(t), sessionConfig(), nil, noopLogger)
	require.NoError(t, err)
	defer s.Close()

	first := New(s, nil, nil, nil, rdb, Settings{SaveInterval: 20 * time.Second}, noopLogger, "first")
	second := New(s, nil, nil, nil, rdb, Settings{}, noopLogger, "second")

	locked, err := first.acquireCharacterLock()
	require.NoError(t, err)
	require.True(t, locked)
	assert.Equal(t, 60*time.Second, mr.TTL(lockKey(s.ID)))

	assert.ErrorIs(t, second.Start(), ErrCharacterLocked)

	// only the owner can release
	second.releaseCharacterLock()
	assert.True(t, mr.Exists(lockKey(s.ID)))
	first.releaseCharacterLock()
	assert.False(t, mr.Exists(lockKey(s.ID)))
}

func TestWorker_StartStopSaves(t *testing.T) {
	w, _, _, store := newTestWorker(t, Settings{FrameInterval: 5 * time.Millisecond, SaveInterval: time.Hour})

	done := make(chan error, 1)
	go func() { done <- w.Start() }()
	time.Sleep(30 * time.Millisecond)
	w.Stop()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}

	rec, err := store.LoadCharacter(context.Background(), w.session.ID)
	require.NoError(t, err)
	require.NotNil(t, rec, "final save on shutdown")
}
