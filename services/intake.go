package services

import (
	"health-intake-backend/config"
	"health-intake-backend/repository"
	"health-intake-backend/utils"

	"go.uber.org/zap"
)

// IntakeDeps are the collaborators of one chatbot instance.
type IntakeDeps struct {
	Store    repository.Store
	Dataset  repository.DatasetSource
	Sessions SessionStore
	LLM      TextCompleter
}

// NewIntakeChatbot wires the extractor, matcher, mapper, ranker, finalizer
// and engine behind a ChatbotService. A nil Dataset derives the dataset
// from the disease catalog.
func NewIntakeChatbot(cfg *config.Config, deps IntakeDeps, logger *zap.Logger) *ChatbotService {
	dataset := deps.Dataset
	if dataset == nil {
		dataset = repository.CatalogDatasetSource{Catalog: deps.Store}
	}
	storeTimeout := cfg.Database.Timeout
	aiTimeout := cfg.AI.Timeout
	classifier := utils.NewIntentClassifier()

	engine := NewConversationEngine(EngineDeps{
		Classifier: classifier,
		Extractor:  NewSymptomExtractor(classifier, deps.LLM, aiTimeout, logger),
		Matcher: NewDiseaseMatcher(deps.Store, NewDatasetCache(dataset, logger), classifier,
			deps.LLM, aiTimeout, storeTimeout, logger),
		Mapper:     NewSpecialtyMapper(deps.Store, storeTimeout, logger),
		Ranker:     NewDoctorRanker(deps.Store, storeTimeout),
		Finalizer:  NewBookingFinalizer(deps.Store, deps.Store, cfg.Booking.DefaultFee, storeTimeout, logger),
		LLM:        deps.LLM,
		AITimeout:  aiTimeout,
		DefaultFee: cfg.Booking.DefaultFee,
		Currency:   cfg.Booking.Currency,
	}, logger)

	return NewChatbotService(engine, deps.Sessions, deps.Store, storeTimeout, cfg.PaymentEnabled(), logger)
}
