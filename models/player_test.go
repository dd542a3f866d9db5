package models

import "testing"

func TestRealmProgressionIsMonotonic(t *testing.T) {
	for i, r := range RealmOrder {
		if r.Ordinal() != i {
			t.Errorf("%s ordinal = %d, want %d", r, r.Ordinal(), i)
		}
		next, ok := r.Next()
		if i == len(RealmOrder)-1 {
			if ok {
				t.Errorf("%s should be the final realm", r)
			}
			continue
		}
		if !ok || next != RealmOrder[i+1] {
			t.Errorf("%s.Next() = %s, want %s", r, next, RealmOrder[i+1])
		}
		if next.Ordinal() != r.Ordinal()+1 {
			t.Errorf("%s.Next() ordinal did not advance by one", r)
		}
	}
}

func TestRealmValidation(t *testing.T) {
	if !RealmQiRefining.IsValid() {
		t.Error("QI_REFINING should be valid")
	}
	if Realm("ASCENDED_BEYOND").IsValid() {
		t.Error("unknown realm should be invalid")
	}
}

func TestSpiritRootMultipliers(t *testing.T) {
	// Rarer roots cultivate faster.
	if SpiritRootHeavenly.Multiplier() <= SpiritRootSingle.Multiplier() {
		t.Error("heavenly root should outpace single root")
	}
	// Unknown roots must not zero out progress.
	if SpiritRoot("BROKEN").Multiplier() != 1.0 {
		t.Error("unknown root should fall back to 1.0")
	}
}

func TestTaskStatusTerminal(t *testing.T) {
	if TaskStatusPending.Terminal() || TaskStatusInProgress.Terminal() {
		t.Error("non-terminal statuses reported terminal")
	}
	if !TaskStatusCompleted.Terminal() || !TaskStatusFailed.Terminal() {
		t.Error("terminal statuses not reported terminal")
	}
}
