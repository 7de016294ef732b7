package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/phrazzld/flashforge/internal/api/shared"
	"github.com/phrazzld/flashforge/internal/domain"
	"github.com/phrazzld/flashforge/internal/export"
	"github.com/phrazzld/flashforge/internal/generation"
)

// FlashcardHandler handles flashcard generation and export requests.
type FlashcardHandler struct {
	generator generation.Generator
	logger    *slog.Logger
}

// NewFlashcardHandler creates a new FlashcardHandler.
func NewFlashcardHandler(generator generation.Generator, logger *slog.Logger) (*FlashcardHandler, error) {
	if generator == nil {
		return nil, errors.New("generator cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	return &FlashcardHandler{
		generator: generator,
		logger:    logger.With(slog.String("component", "flashcard_handler")),
	}, nil
}

// GenerateFlashcards handles POST /api/flashcards requests.
func (h *FlashcardHandler) GenerateFlashcards(w http.ResponseWriter, r *http.Request) {
	var req GenerateFlashcardsRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), SanitizeValidationError(err), err)
		return
	}

	params := req.Params()

	// The generator reports at most one failure per call; collect it for
	// this request instead of the service-wide log reporter.
	recorder := &generation.FailureRecorder{}
	ctx := generation.ContextWithReporter(r.Context(), recorder)

	cards := h.generator.GenerateFlashcards(ctx, params)

	if failure, ok := recorder.Failure(); ok {
		shared.RespondWithErrorAndLog(w, r, MapFailureToStatusCode(failure.Kind), failure.Notice(), failure.Err)
		return
	}

	h.logger.DebugContext(r.Context(), "flashcards generated",
		slog.Int("requested", params.CardCount),
		slog.Int("returned", len(cards)))

	shared.RespondWithJSON(w, r, http.StatusOK, GenerateFlashcardsResponse{
		Cards:            cardsToResponse(cards),
		Count:            len(cards),
		QuestionLanguage: params.QuestionLanguage,
		AnswerLanguage:   params.AnswerLanguage,
	})
}

// ExportFlashcards handles POST /api/flashcards/export requests and returns
// the cards as a Markdown attachment.
func (h *FlashcardHandler) ExportFlashcards(w http.ResponseWriter, r *http.Request) {
	var req ExportFlashcardsRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), SanitizeValidationError(err), err)
		return
	}

	questionLang, _ := domain.NormalizeLanguage(req.QuestionLanguage)
	answerLang, _ := domain.NormalizeLanguage(req.AnswerLanguage)

	body := export.Markdown(cardsFromRequest(req.Cards), questionLang, answerLang)
	shared.RespondWithAttachment(w, r, export.MIMEType, export.DownloadFileName, []byte(body))
}

// ListLanguages handles GET /api/languages requests.
func (h *FlashcardHandler) ListLanguages(w http.ResponseWriter, r *http.Request) {
	difficulties := domain.Difficulties()
	names := make([]string, len(difficulties))
	for i, d := range difficulties {
		names[i] = d.String()
	}

	shared.RespondWithJSON(w, r, http.StatusOK, LanguagesResponse{
		Languages:         domain.SupportedLanguages(),
		Difficulties:      names,
		DefaultCardCount:  domain.DefaultCardCount,
		MinCardCount:      domain.MinCardCount,
		MaxCardCount:      domain.MaxCardCount,
		MinSourceTextSize: domain.MinSourceTextLength,
	})
}
