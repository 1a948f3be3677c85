package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"health-intake-backend/models"
	"health-intake-backend/repository"
)

const maxRankedDoctors = 5

// Tier names the filter level that produced a ranking.
type Tier string

const (
	TierSpecialtyLocation Tier = "specialty_location"
	TierGeneralLocation   Tier = "general_location"
	TierLocation          Tier = "location"
	TierSpecialty         Tier = "specialty"
	TierAny               Tier = "any"
)

type Ranking struct {
	Doctors []models.Doctor
	Tier    Tier
}

// Best returns the head of the ranking.
func (r Ranking) Best() (models.Doctor, bool) {
	if len(r.Doctors) == 0 {
		return models.Doctor{}, false
	}
	return r.Doctors[0], true
}

type DoctorRanker struct {
	directory    repository.DoctorDirectory
	storeTimeout time.Duration
}

func NewDoctorRanker(directory repository.DoctorDirectory, storeTimeout time.Duration) *DoctorRanker {
	return &DoctorRanker{directory: directory, storeTimeout: storeTimeout}
}

func (r *DoctorRanker) Rank(ctx context.Context, specialty, location string) (Ranking, error) {
	ctx, cancel := bounded(ctx, r.storeTimeout)
	defer cancel()
	doctors, err := r.directory.ListDoctors(ctx)
	if err != nil {
		return Ranking{}, fmt.Errorf("list doctors: %w", err)
	}
	return RankDoctors(doctors, specialty, location), nil
}

// RankDoctors applies the tiers in order until one is non-empty:
// specialty and location, General Medicine and location, location only,
// specialty only, then everyone.
func RankDoctors(directory []models.Doctor, specialty, location string) Ranking {
	specialty = strings.TrimSpace(specialty)
	location = strings.TrimSpace(location)

	type tier struct {
		name      Tier
		specialty string
		location  string
		applies   bool
	}
	tiers := []tier{
		{TierSpecialtyLocation, specialty, location, specialty != "" && location != ""},
		{TierGeneralLocation, GeneralMedicine, location, location != "" && !strings.EqualFold(specialty, GeneralMedicine)},
		{TierLocation, "", location, location != ""},
		{TierSpecialty, specialty, "", specialty != ""},
		{TierAny, "", "", true},
	}

	for _, t := range tiers {
		if !t.applies {
			continue
		}
		var hits []models.Doctor
		for _, d := range directory {
			if fieldMatches(d.Specialty, t.specialty) && fieldMatches(d.Location, t.location) {
				hits = append(hits, d)
			}
		}
		if len(hits) > 0 {
			sortDoctors(hits)
			if len(hits) > maxRankedDoctors {
				hits = hits[:maxRankedDoctors]
			}
			return Ranking{Doctors: hits, Tier: t.name}
		}
	}
	return Ranking{}
}

// fieldMatches is a case-insensitive substring match in either direction.
// An empty want matches everything.
func fieldMatches(field, want string) bool {
	if want == "" {
		return true
	}
	f := strings.ToLower(strings.TrimSpace(field))
	w := strings.ToLower(want)
	if f == "" {
		return false
	}
	return strings.Contains(f, w) || strings.Contains(w, f)
}

// sortDoctors orders by experience descending, unknown experience last,
// then by name.
func sortDoctors(doctors []models.Doctor) {
	sort.SliceStable(doctors, func(i, j int) bool {
		a, b := doctors[i].ExperienceYears, doctors[j].ExperienceYears
		switch {
		case a != nil && b == nil:
			return true
		case a == nil && b != nil:
			return false
		case a != nil && b != nil && *a != *b:
			return *a > *b
		}
		return doctors[i].Name < doctors[j].Name
	})
}
