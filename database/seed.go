package database

import (
	"health-intake-backend/models"
	"health-intake-backend/repository"
)

func present(names ...string) []models.DiseaseSymptom {
	out := make([]models.DiseaseSymptom, len(names))
	for i, n := range names {
		out[i] = models.DiseaseSymptom{Symptom: n, Present: true}
	}
	return out
}

// SeedDemoData loads a small catalog and directory for DB_TYPE=memory.
func SeedDemoData(store *repository.MemoryStore) {
	store.SeedDiseases(
		models.Disease{ID: "typhoid", Name: "Typhoid", Specialist: "Internal Medicine",
			Description: "A bacterial infection spread through contaminated food and water.",
			Symptoms:    present("fever", "headache", "abdominal pain", "weakness")},
		models.Disease{ID: "dengue", Name: "Dengue", Specialist: "Internal Medicine",
			Description: "A mosquito-borne viral infection.",
			Symptoms:    present("high fever", "joint pain", "rash", "pain behind the eyes")},
		models.Disease{ID: "migraine", Name: "Migraine", Specialist: "Neurologist",
			Description: "Recurring headaches of moderate to severe intensity.",
			Symptoms:    present("headache", "nausea", "sensitivity to light")},
		models.Disease{ID: "heart-attack", Name: "Heart Attack", Specialist: "Cardiologist",
			Description: "Blocked blood flow to the heart muscle.",
			Symptoms:    present("chest pain", "shortness of breath", "sweating")},
		models.Disease{ID: "asthma", Name: "Asthma", Specialist: "Pulmonologist",
			Description: "Inflamed and narrowed airways.",
			Symptoms:    present("wheezing", "cough", "shortness of breath")},
		models.Disease{ID: "eczema", Name: "Eczema", Specialist: "Dermatologist",
			Description: "Itchy, inflamed patches of skin.",
			Symptoms:    present("itching", "rash", "dry skin")},
	)

	store.SeedDoctors(
		models.Doctor{ID: "dr-rahman", Name: "Dr. Ayesha Rahman", Specialty: "Internal Medicine", Location: "Dhanmondi",
			Chamber: "Popular Diagnostic Centre", ExperienceYears: models.Years(15), ConsultationFee: 1000},
		models.Doctor{ID: "dr-hossain", Name: "Dr. Kamal Hossain", Specialty: "Cardiologist", Location: "Gulshan",
			Chamber: "United Hospital", ExperienceYears: models.Years(22), ConsultationFee: 1500},
		models.Doctor{ID: "dr-akter", Name: "Dr. Nasrin Akter", Specialty: "Neurologist", Location: "Dhanmondi",
			ExperienceYears: models.Years(9)},
		models.Doctor{ID: "dr-islam", Name: "Dr. Rafiq Islam", Specialty: "General Medicine", Location: "Mirpur",
			ExperienceYears: models.Years(6), ConsultationFee: 600},
		models.Doctor{ID: "dr-chowdhury", Name: "Dr. Farhana Chowdhury", Specialty: "Dermatologist", Location: "Uttara"},
		models.Doctor{ID: "dr-karim", Name: "Dr. Abdul Karim", Specialty: "Pulmonologist", Location: "Chittagong",
			ExperienceYears: models.Years(12), ConsultationFee: 800},
	)
}
