package services

import (
	"context"
	"errors"
	"testing"

	"cultivation-system/models"
)

// fakeRand replays queued values so outcome draws are deterministic.
type fakeRand struct {
	floats []float64
	ints   []int
	fi, ii int
}

func (f *fakeRand) Float64() float64 {
	if f.fi >= len(f.floats) {
		return 0
	}
	v := f.floats[f.fi]
	f.fi++
	return v
}

func (f *fakeRand) Intn(n int) int {
	if f.ii >= len(f.ints) {
		return 0
	}
	v := f.ints[f.ii] % n
	f.ii++
	return v
}

func TestApplyEventDeltasCapsAndFloors(t *testing.T) {
	p := &models.Player{
		Qi: 90, MaxQi: 100,
		SpiritStones: 5, Contribution: 3, InnerDemon: 0,
	}

	applyEventDeltas(p, &models.EventDeltas{Qi: 50, SpiritStones: -100, Contribution: -10, InnerDemon: 2})

	if p.Qi != 100 {
		t.Errorf("qi = %v, want capped at 100", p.Qi)
	}
	if p.SpiritStones != 0 {
		t.Errorf("stones = %d, want floored at 0", p.SpiritStones)
	}
	if p.Contribution != 0 {
		t.Errorf("contribution = %d, want floored at 0", p.Contribution)
	}
	if p.InnerDemon != 2 {
		t.Errorf("innerDemon = %d, want 2", p.InnerDemon)
	}
}

func TestApplyEventDeltasNegativeQiFloorsAtZero(t *testing.T) {
	p := &models.Player{Qi: 10, MaxQi: 100}
	applyEventDeltas(p, &models.EventDeltas{Qi: -50})
	if p.Qi != 0 {
		t.Errorf("qi = %v, want 0", p.Qi)
	}
}

func TestApplyEventDeltasGrantsItems(t *testing.T) {
	p := &models.Player{MaxQi: 100}
	applyEventDeltas(p, &models.EventDeltas{Items: []models.InventoryItem{
		{ItemID: "gourd", Name: "Sealed Gourd", Quantity: 1},
	}})
	if len(p.Inventory) != 1 || p.Inventory[0].ItemID != "gourd" {
		t.Errorf("inventory = %+v", p.Inventory)
	}
}

func TestDrawOutcomeScalesWithChoiceIndex(t *testing.T) {
	first, _, _ := drawOutcome(&fakeRand{ints: []int{0}}, 0)
	last, _, _ := drawOutcome(&fakeRand{ints: []int{0}}, 3)
	if last.Qi <= first.Qi {
		t.Errorf("later choices should swing harder: choice 0 qi %v, choice 3 qi %v", first.Qi, last.Qi)
	}
}

func TestResolveOutcomePrefersPipelineNarration(t *testing.T) {
	event := &models.GameEvent{
		Title:       "Storm Over the Peak",
		Description: "The qi turns wild.",
		Choices:     []models.EventChoice{{Text: "Meditate"}, {Text: "Wait"}},
	}

	gen := &scriptedGenerator{responses: []string{`{"narration": "The storm bows to your will."}`}}
	svc := &EventService{Content: NewContentService(gen), Rand: &fakeRand{ints: []int{0}}}

	deltas, narration := svc.resolveOutcome(context.Background(), event, 0)
	if narration != "The storm bows to your will." {
		t.Errorf("narration = %q, want the generated line", narration)
	}
	if deltas.Qi != outcomeTable[0].Deltas.Qi {
		t.Errorf("deltas.Qi = %v, want %v", deltas.Qi, outcomeTable[0].Deltas.Qi)
	}
}

func TestResolveOutcomeFallsBackToStaticLine(t *testing.T) {
	event := &models.GameEvent{
		Title:   "Storm Over the Peak",
		Choices: []models.EventChoice{{Text: "Meditate"}},
	}

	gen := &scriptedGenerator{
		responses: []string{""},
		errs:      []error{errors.New("upstream timeout")},
	}
	svc := &EventService{Content: NewContentService(gen), Rand: &fakeRand{ints: []int{0}}}

	_, narration := svc.resolveOutcome(context.Background(), event, 0)
	if narration != outcomeTable[0].Narration {
		t.Errorf("narration = %q, want the static fallback %q", narration, outcomeTable[0].Narration)
	}
}

func TestResolveOutcomeWithoutBackendUsesStaticLine(t *testing.T) {
	event := &models.GameEvent{
		Title:   "A Wandering Merchant",
		Choices: []models.EventChoice{{Text: "Buy"}, {Text: "Walk away"}},
	}
	svc := &EventService{Content: NewContentService(nil), Rand: &fakeRand{ints: []int{0}}}

	deltas, narration := svc.resolveOutcome(context.Background(), event, 1)
	if narration != outcomeTable[0].Narration {
		t.Errorf("narration = %q, want %q", narration, outcomeTable[0].Narration)
	}
	// choice index 1 scales the qi swing by 1.25
	if want := outcomeTable[0].Deltas.Qi * 1.25; deltas.Qi != want {
		t.Errorf("deltas.Qi = %v, want %v", deltas.Qi, want)
	}
}

func TestSeedEventsHaveValidChoiceCounts(t *testing.T) {
	for _, event := range seedEvents {
		if len(event.Choices) < 2 || len(event.Choices) > 4 {
			t.Errorf("seed event %q has %d choices, want 2-4", event.Title, len(event.Choices))
		}
	}
}

func TestOutcomeTableDeltasAreSane(t *testing.T) {
	for i, o := range outcomeTable {
		if o.Weight <= 0 {
			t.Errorf("outcome %d has non-positive weight", i)
		}
		if o.Favorable && o.Deltas.Qi < 0 {
			t.Errorf("favorable outcome %d drains qi", i)
		}
		if !o.Favorable && o.Deltas.Qi > 0 {
			t.Errorf("unfavorable outcome %d grants qi", i)
		}
	}
}

func TestWeightedPickRespectsWeights(t *testing.T) {
	// roll 0 lands in the first positive-weight bucket
	if got := WeightedPick(&fakeRand{ints: []int{0}}, []int{0, 5, 5}); got != 1 {
		t.Errorf("pick = %d, want 1 (first positive weight)", got)
	}
	// roll just past the first bucket lands in the second
	if got := WeightedPick(&fakeRand{ints: []int{5}}, []int{5, 5}); got != 1 {
		t.Errorf("pick = %d, want 1", got)
	}
	// all-zero weights fall back to uniform
	if got := WeightedPick(&fakeRand{ints: []int{2}}, []int{0, 0, 0}); got != 2 {
		t.Errorf("pick = %d, want uniform fallback 2", got)
	}
	if got := WeightedPick(&fakeRand{}, nil); got != 0 {
		t.Errorf("empty weights should return 0, got %d", got)
	}
}

func TestSuccessCheckBoundaries(t *testing.T) {
	if SuccessCheck(&fakeRand{floats: []float64{0.999}}, 1.5) != true {
		t.Error("chance above 1 clamps to certain success")
	}
	if SuccessCheck(&fakeRand{floats: []float64{0}}, -0.5) != false {
		t.Error("chance below 0 clamps to certain failure")
	}
}
