package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/phrazzld/flashforge/internal/config"
	"github.com/phrazzld/flashforge/internal/domain"
	"github.com/phrazzld/flashforge/internal/export"
	"github.com/phrazzld/flashforge/internal/generation"
	"github.com/phrazzld/flashforge/internal/platform/gemini"
	"github.com/phrazzld/flashforge/internal/platform/logger"
	"github.com/spf13/cobra"
)

// Saved file layouts.
const (
	formatListing  = "listing"
	formatMarkdown = "markdown"
)

const maxSourceBytes = 4 << 20

var (
	errGenerationFailed = errors.New("flashcard generation failed")
	errNoSource         = errors.New("no source text: use --file, --text, standard input or --topic")
)

type generateOptions struct {
	envFile    string
	configFile string
	verbose    bool

	file string
	text string

	cards        int
	difficulty   string
	questionLang string
	answerLang   string

	topic    string
	topicSet bool
	outDir   string
	format   string
}

// cliRequest is one validated invocation: cards from source text, or from
// the topic alone when no text was supplied.
type cliRequest struct {
	params    domain.GenerationParams
	topic     string
	fromTopic bool
}

func (r cliRequest) topicParams() domain.TopicParams {
	return domain.TopicParams{
		Topic:            r.topic,
		CardCount:        r.params.CardCount,
		Difficulty:       r.params.Difficulty,
		QuestionLanguage: r.params.QuestionLanguage,
		AnswerLanguage:   r.params.AnswerLanguage,
	}
}

// cardGenerator is what the command needs from the generation service.
type cardGenerator interface {
	generation.Generator
	generation.TopicGenerator
}

func generateCmd() *cobra.Command {
	var opts generateOptions

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate flashcards from text",
		Long: `Generate flashcards from study material.

The source text is read from --file, --text or standard input, in that
order of preference, and must be at least 50 characters long.

With --topic and no source text (no --file or --text, and standard input
empty or a terminal) the cards are written from the model's own knowledge
of the topic instead.

Cards are printed as Q1/A1 pairs. With --out the cards are also saved to
<out>/<topic>_flashcards.md under a "# <topic> - Flashcards" heading.

Environment variables:
  GEMINI_API_KEY               Gemini API key (also FLASHFORGE_LLM_GEMINI_API_KEY)
  FLASHFORGE_LLM_MODEL_NAME    Model identifier (default: gemini-2.5-flash)
  FLASHFORGE_LLM_MAX_RETRIES   Total attempts per request (default: 5)`,
		Example: `  flashforge generate --file notes.txt --cards 10 --difficulty advanced
  flashforge generate --topic "Python functions" --cards 10
  cat notes.txt | flashforge generate --question-lang Spanish --answer-lang English --out examples --topic "Cell biology"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.topicSet = cmd.Flags().Changed("topic")
			return runGenerate(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.envFile, "env-file", "", "Path to .env file (default: .env in current directory)")
	flags.StringVar(&opts.configFile, "config", "", "Path to a flashforge.yaml config file")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Log generation details to stderr")

	flags.StringVarP(&opts.file, "file", "f", "", "Read source text from this file")
	flags.StringVarP(&opts.text, "text", "t", "", "Source text")
	cmd.MarkFlagsMutuallyExclusive("file", "text")

	flags.IntVarP(&opts.cards, "cards", "n", domain.DefaultCardCount,
		fmt.Sprintf("Number of cards to generate (%d-%d)", domain.MinCardCount, domain.MaxCardCount))
	flags.StringVarP(&opts.difficulty, "difficulty", "d", string(domain.DifficultyIntermediate), "Beginner, Intermediate or Advanced")
	flags.StringVar(&opts.questionLang, "question-lang", "English", "Language of the questions")
	flags.StringVar(&opts.answerLang, "answer-lang", "English", "Language of the answers")

	flags.StringVar(&opts.topic, "topic", "Flashcards", "Topic used for the saved file name and heading; without source text, the subject to write cards about")
	flags.StringVarP(&opts.outDir, "out", "o", "", "Directory to save the cards to")
	flags.StringVar(&opts.format, "format", formatListing, "Saved file layout: listing or markdown")

	return cmd
}

func runGenerate(cmd *cobra.Command, opts generateOptions) error {
	req, err := opts.request(cmd.InOrStdin())
	if err != nil {
		return err
	}

	cfg, err := config.LoadWithOptions(config.LoadOptions{EnvFile: opts.envFile, ConfigFile: opts.configFile})
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level := "warn"
	if opts.verbose {
		level = "debug"
	}
	log := logger.New(cmd.ErrOrStderr(), level, "text")

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	invoker, err := gemini.New(ctx, cfg.LLM, log.With("component", "gemini_invoker"))
	if err != nil {
		return fmt.Errorf("create invoker: %w", err)
	}

	svc, err := generation.NewService(invoker, log.With("component", "generation_service"),
		generation.WithParser(generation.Parser{Strict: cfg.LLM.StrictParsing}))
	if err != nil {
		return fmt.Errorf("create generation service: %w", err)
	}

	return generate(ctx, svc, req, opts, cmd.OutOrStdout(), cmd.ErrOrStderr(), time.Now)
}

// request reads the source text and checks every option against caller
// policy before any network work is done.
func (o generateOptions) request(stdin io.Reader) (cliRequest, error) {
	text, err := o.sourceText(stdin)
	if err != nil && !errors.Is(err, errNoSource) {
		return cliRequest{}, err
	}

	if strings.TrimSpace(text) == "" && o.topicSet {
		if strings.TrimSpace(o.topic) == "" {
			return cliRequest{}, errors.New("--topic cannot be blank")
		}
		params, err := o.params("")
		if err != nil {
			return cliRequest{}, err
		}
		return cliRequest{params: params, topic: strings.TrimSpace(o.topic), fromTopic: true}, nil
	}

	if err != nil {
		return cliRequest{}, err
	}

	if n := len([]rune(strings.TrimSpace(text))); n < domain.MinSourceTextLength {
		return cliRequest{}, fmt.Errorf("source text must be at least %d characters, got %d",
			domain.MinSourceTextLength, n)
	}

	params, err := o.params(text)
	if err != nil {
		return cliRequest{}, err
	}
	return cliRequest{params: params, topic: o.topic}, nil
}

// params checks the options shared by both modes.
func (o generateOptions) params(text string) (domain.GenerationParams, error) {
	if o.cards < domain.MinCardCount || o.cards > domain.MaxCardCount {
		return domain.GenerationParams{}, fmt.Errorf("--cards must be between %d and %d, got %d",
			domain.MinCardCount, domain.MaxCardCount, o.cards)
	}

	difficulty, err := domain.ParseDifficulty(o.difficulty)
	if err != nil {
		return domain.GenerationParams{}, fmt.Errorf("--difficulty: %w", err)
	}

	questionLang, ok := domain.NormalizeLanguage(o.questionLang)
	if !ok {
		return domain.GenerationParams{}, fmt.Errorf("--question-lang: unsupported language %q (supported: %s)",
			o.questionLang, strings.Join(domain.SupportedLanguages(), ", "))
	}

	answerLang, ok := domain.NormalizeLanguage(o.answerLang)
	if !ok {
		return domain.GenerationParams{}, fmt.Errorf("--answer-lang: unsupported language %q (supported: %s)",
			o.answerLang, strings.Join(domain.SupportedLanguages(), ", "))
	}

	if o.format != formatListing && o.format != formatMarkdown {
		return domain.GenerationParams{}, fmt.Errorf("--format must be %s or %s", formatListing, formatMarkdown)
	}

	return domain.GenerationParams{
		SourceText:       text,
		CardCount:        o.cards,
		Difficulty:       difficulty,
		QuestionLanguage: questionLang,
		AnswerLanguage:   answerLang,
	}, nil
}

// sourceText returns errNoSource when nothing was supplied. A terminal on
// standard input counts as nothing, so topic mode never waits for input.
func (o generateOptions) sourceText(stdin io.Reader) (string, error) {
	switch {
	case o.file != "":
		f, err := os.Open(o.file)
		if err != nil {
			return "", fmt.Errorf("read source file: %w", err)
		}
		defer f.Close()
		return readSource(f, "source file")
	case o.text != "":
		return o.text, nil
	case stdin != nil && !isTerminal(stdin):
		return readSource(stdin, "stdin")
	default:
		return "", errNoSource
	}
}

// readSource reads r whole, rejecting input larger than maxSourceBytes.
func readSource(r io.Reader, name string) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxSourceBytes+1))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	if len(data) > maxSourceBytes {
		return "", fmt.Errorf("%s exceeds %d bytes", name, maxSourceBytes)
	}
	return string(data), nil
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

// generate runs one generation, prints the cards and optionally saves them.
// A reported failure prints its notice and returns errGenerationFailed.
func generate(
	ctx context.Context,
	gen cardGenerator,
	req cliRequest,
	opts generateOptions,
	out, errOut io.Writer,
	now func() time.Time,
) error {
	params := req.params
	subject := ""
	if req.fromTopic {
		subject = fmt.Sprintf(" about %q", req.topic)
	}
	fmt.Fprintf(errOut, "Generating %d %s flashcards%s (%s questions, %s answers)...\n",
		params.CardCount, strings.ToLower(params.Difficulty.String()), subject, params.QuestionLanguage, params.AnswerLanguage)

	recorder := &generation.FailureRecorder{}
	ctx = generation.ContextWithReporter(ctx, recorder)

	var cards []domain.Flashcard
	if req.fromTopic {
		cards = gen.GenerateFromTopic(ctx, req.topicParams())
	} else {
		cards = gen.GenerateFlashcards(ctx, params)
	}

	if failure, ok := recorder.Failure(); ok {
		fmt.Fprintln(errOut, failure.Notice())
		return fmt.Errorf("%w: %s", errGenerationFailed, failure.Kind)
	}

	listing := export.Listing(cards)
	fmt.Fprintln(out, "Your flashcards:")
	fmt.Fprintln(out)
	fmt.Fprint(out, listing)

	if opts.outDir == "" {
		return nil
	}

	body := listing
	if opts.format == formatMarkdown {
		body = export.Markdown(cards, params.QuestionLanguage, params.AnswerLanguage)
	}

	path, err := save(opts.outDir, req.topic, export.Document(req.topic, now(), body))
	if err != nil {
		return err
	}

	fmt.Fprintf(errOut, "Saved to %s\n", path)
	return nil
}

func save(dir, topic, document string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	path := filepath.Join(dir, export.FileName(topic))
	if err := os.WriteFile(path, []byte(document), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
