package models

// Disease is a read-only catalog entry. Name is the case-insensitive
// matching key.
type Disease struct {
	ID          string           `bson:"_id,omitempty" json:"id,omitempty"`
	Name        string           `bson:"name" json:"name"`
	Description string           `bson:"description,omitempty" json:"description,omitempty"`
	Specialist  string           `bson:"specialist,omitempty" json:"specialist,omitempty"`
	Symptoms    []DiseaseSymptom `bson:"symptoms,omitempty" json:"symptoms,omitempty"`
}

// DiseaseSymptom records whether a symptom is present for a disease.
type DiseaseSymptom struct {
	DiseaseID string `bson:"disease_id,omitempty" json:"disease_id,omitempty"`
	SymptomID string `bson:"symptom_id,omitempty" json:"symptom_id,omitempty"`
	Symptom   string `bson:"symptom" json:"symptom"`
	Present   bool   `bson:"present" json:"present"`
}

// PresentSymptoms returns the names of the symptoms flagged present.
func (d Disease) PresentSymptoms() []string {
	out := make([]string, 0, len(d.Symptoms))
	for _, s := range d.Symptoms {
		if s.Present && s.Symptom != "" {
			out = append(out, s.Symptom)
		}
	}
	return out
}

// DatasetRecord is one row of the bulk symptom dataset: a disease and one
// recorded combination of symptoms.
type DatasetRecord struct {
	Disease  string   `bson:"disease" json:"disease"`
	Symptoms []string `bson:"symptoms" json:"symptoms"`
}

// Doctor is a read-only directory entry. ExperienceYears is nil when
// unknown; ConsultationFee is 0 when absent.
type Doctor struct {
	ID              string  `bson:"_id,omitempty" json:"id"`
	Name            string  `bson:"name" json:"name"`
	Specialty       string  `bson:"specialty" json:"specialty"`
	Location        string  `bson:"location" json:"location"`
	Chamber         string  `bson:"chamber,omitempty" json:"chamber,omitempty"`
	ExperienceYears *int    `bson:"experience_years,omitempty" json:"experience_years,omitempty"`
	ConsultationFee float64 `bson:"consultation_fee,omitempty" json:"consultation_fee,omitempty"`
}

// Fee returns the consultation fee, or defaultFee when none is recorded.
func (d Doctor) Fee(defaultFee float64) float64 {
	if d.ConsultationFee > 0 {
		return d.ConsultationFee
	}
	return defaultFee
}

// DoctorSnapshot is the doctor data handed to the payment step.
type DoctorSnapshot struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Specialty string  `json:"specialty"`
	Location  string  `json:"location"`
	Chamber   string  `json:"chamber,omitempty"`
	Fee       float64 `json:"fee"`
}

func (d Doctor) Snapshot(defaultFee float64) DoctorSnapshot {
	return DoctorSnapshot{
		ID:        d.ID,
		Name:      d.Name,
		Specialty: d.Specialty,
		Location:  d.Location,
		Chamber:   d.Chamber,
		Fee:       d.Fee(defaultFee),
	}
}

// Years returns a pointer to n, for building doctors in code.
func Years(n int) *int {
	return &n
}
