package services

import (
	"context"
	"strings"
	"time"

	"health-intake-backend/models"
	"health-intake-backend/repository"
	"health-intake-backend/utils"

	"go.uber.org/zap"
)

const GeneralMedicine = "General Medicine"

var canonicalSpecialties = []string{
	"Cardiologist", "Dermatologist", "Gastroenterologist", "Hepatologist",
	"Endocrinologist", "Neurologist", "Pediatrician", "Pulmonologist",
	"Rheumatologist", "ENT", "Internal Medicine", "Gynecologist",
	"Allergist", "Phlebologist", "Osteopathic",
}

var specialtyKeywords = []struct {
	keywords  []string
	specialty string
}{
	{[]string{"heart", "cardiac"}, "Cardiologist"},
	{[]string{"skin", "rash"}, "Dermatologist"},
	{[]string{"stomach", "ulcer"}, "Gastroenterologist"},
	{[]string{"liver", "jaundice"}, "Hepatologist"},
	{[]string{"diabetes", "thyroid"}, "Endocrinologist"},
	{[]string{"asthma", "pneumonia"}, "Pulmonologist"},
	{[]string{"migraine", "vertigo"}, "Neurologist"},
	{[]string{"arthritis"}, "Rheumatologist"},
	{[]string{"fever", "flu", "malaria", "dengue", "typhoid"}, "Internal Medicine"},
}

// SpecialtyMapper maps a disease name to a specialty label. It always
// returns something usable.
type SpecialtyMapper struct {
	catalog      repository.DiseaseCatalog
	storeTimeout time.Duration
	logger       *zap.Logger
}

func NewSpecialtyMapper(catalog repository.DiseaseCatalog, storeTimeout time.Duration, logger *zap.Logger) *SpecialtyMapper {
	return &SpecialtyMapper{catalog: catalog, storeTimeout: storeTimeout, logger: logger}
}

func (m *SpecialtyMapper) Map(ctx context.Context, diseaseName string) string {
	ctx, cancel := bounded(ctx, m.storeTimeout)
	defer cancel()

	disease := models.Disease{Name: diseaseName}
	diseases, err := m.catalog.ListDiseases(ctx)
	if err != nil {
		m.logger.Warn("disease catalog unavailable, inferring specialty from name",
			zap.String("component", "specialty_mapper"), zap.Error(err))
	}
	for _, d := range diseases {
		if strings.EqualFold(strings.TrimSpace(d.Name), strings.TrimSpace(diseaseName)) {
			disease = d
			break
		}
	}
	return SpecialtyFor(disease)
}

// SpecialtyFor picks the canonical label for the recorded specialist,
// the verbatim specialist when none fits, or a keyword guess from the name.
func SpecialtyFor(d models.Disease) string {
	if specialist := strings.TrimSpace(d.Specialist); specialist != "" {
		if canonical := canonicalSpecialty(specialist); canonical != "" {
			return canonical
		}
		return specialist
	}

	name := strings.ToLower(d.Name)
	for _, rule := range specialtyKeywords {
		for _, keyword := range rule.keywords {
			if strings.Contains(name, keyword) {
				return rule.specialty
			}
		}
	}
	return GeneralMedicine
}

func canonicalSpecialty(specialist string) string {
	lower := strings.ToLower(specialist)
	words := utils.Tokenize(specialist)
	for _, canonical := range canonicalSpecialties {
		c := strings.ToLower(canonical)
		// short labels like ENT only match as a whole word
		if len(c) <= 3 {
			for _, w := range words {
				if w == c {
					return canonical
				}
			}
			continue
		}
		if strings.Contains(lower, c) || (len(lower) > 3 && strings.Contains(c, lower)) {
			return canonical
		}
	}
	return ""
}
