package services

import (
	"context"
	"testing"
	"time"

	"health-intake-backend/models"

	"go.uber.org/zap"
)

func TestSpecialtyFor(t *testing.T) {
	cases := []struct {
		disease models.Disease
		want    string
	}{
		{models.Disease{Name: "Angina", Specialist: "Consultant Cardiologist"}, "Cardiologist"},
		{models.Disease{Name: "Sinusitis", Specialist: "ent"}, "ENT"},
		{models.Disease{Name: "Sprain", Specialist: "Sports Medicine"}, "Sports Medicine"},
		{models.Disease{Name: "Heart Attack"}, "Cardiologist"},
		{models.Disease{Name: "Dengue Fever"}, "Internal Medicine"},
		{models.Disease{Name: "Psoriasis skin flare"}, "Dermatologist"},
		{models.Disease{Name: "Mystery"}, GeneralMedicine},
	}
	for _, tc := range cases {
		if got := SpecialtyFor(tc.disease); got != tc.want {
			t.Errorf("SpecialtyFor(%+v) = %q, want %q", tc.disease, got, tc.want)
		}
	}
}

func TestSpecialtyMapperUsesCatalog(t *testing.T) {
	m := NewSpecialtyMapper(newClinicStore(), time.Second, zap.NewNop())
	if got := m.Map(context.Background(), "typhoid"); got != "Internal Medicine" {
		t.Fatalf("Map(typhoid) = %q", got)
	}
	if got := m.Map(context.Background(), models.UnspecifiedCondition); got != GeneralMedicine {
		t.Fatalf("Map(unspecified) = %q", got)
	}
}

func TestSpecialtyMapperFallsBackToName(t *testing.T) {
	store := &failingStore{MemoryStore: newClinicStore(), failDiseases: true}
	m := NewSpecialtyMapper(store, time.Second, zap.NewNop())
	if got := m.Map(context.Background(), "Heart Attack"); got != "Cardiologist" {
		t.Fatalf("Map = %q", got)
	}
}
