package pipeline

import (
	"context"
	"log/slog"
	"time"

	"dubber/internal/logging"
	"dubber/internal/pyhelper"
	"dubber/internal/services"
	"dubber/internal/services/ffmpeg"
	"dubber/internal/services/llm"
	"dubber/internal/services/translate"
	"dubber/internal/services/tts"
	"dubber/internal/services/whisper"
)

// Stage names stamped on the context and logs.
const (
	StageExtract    = "extract"
	StageTranscribe = "transcribe"
	StageTranslate  = "translate"
	StageSynthesize = "synthesize"
	StageMux        = "mux"
)

// MediaEngine extracts and replaces audio tracks.
type MediaEngine interface {
	ExtractAudio(ctx context.Context, sourceVideo, outputAudio string) (string, error)
	MuxAudioWithVideo(ctx context.Context, sourceVideo, audio, outputVideo string) (string, error)
}

// Transcriber converts speech to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, languageHint string) (whisper.Result, error)
}

// Translator converts text to the target language.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// Synthesizer voices text into an audio file.
type Synthesizer interface {
	SynthesizeToFile(ctx context.Context, text, outputAudio string) (string, error)
}

// Engines groups the collaborators of one orchestrator.
type Engines struct {
	Media       MediaEngine
	Transcriber Transcriber
	Translator  Translator
	Synthesizer Synthesizer
}

// Paths names the four files one run reads and writes.
type Paths struct {
	SourceVideo    string
	ExtractedAudio string
	SynthesisAudio string
	OutputVideo    string
}

// Result summarizes a successful run.
type Result struct {
	TranscriptText   string
	TranslatedText   string
	DetectedLanguage string
	OutputVideoPath  string
}

// Orchestrator runs the dubbing stages in order.
type Orchestrator struct {
	engines        Engines
	sourceLanguage string
	logger         *slog.Logger
}

// New builds an orchestrator with real engines. Models load lazily on first use.
func New(settings Settings, logger *slog.Logger) *Orchestrator {
	python := pyhelper.New(settings.PythonInterpreter, logger)

	translateOpts := []translate.Option{translate.WithPythonRunner(python)}
	if settings.Translation.Provider == translate.ProviderLLM {
		translateOpts = append(translateOpts, translate.WithLLMClient(llm.NewClient(settings.LLM)))
	}

	engines := Engines{
		Media:       ffmpeg.NewService(settings.FFmpegBin),
		Transcriber: whisper.NewService(settings.Transcription, logger),
		Translator:  translate.NewService(settings.Translation, logger, translateOpts...),
		Synthesizer: tts.NewService(settings.TTS, logger, tts.WithPythonRunner(python)),
	}
	o := NewWithEngines(engines, logger)
	o.sourceLanguage = settings.SourceLanguage
	return o
}

// NewWithEngines builds an orchestrator around injected engines.
func NewWithEngines(engines Engines, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		engines: engines,
		logger:  logging.NewComponentLogger(logger, "pipeline"),
	}
}

// WithSourceLanguage sets the language hint passed to transcription.
func (o *Orchestrator) WithSourceLanguage(code string) *Orchestrator {
	o.sourceLanguage = code
	return o
}

// Run executes extract, transcribe, translate, synthesize, and mux. The
// first failure aborts the run and is returned unchanged.
func (o *Orchestrator) Run(ctx context.Context, paths Paths) (Result, error) {
	if err := o.stage(ctx, StageExtract, func(ctx context.Context) error {
		_, err := o.engines.Media.ExtractAudio(ctx, paths.SourceVideo, paths.ExtractedAudio)
		return err
	}); err != nil {
		return Result{}, err
	}

	var transcription whisper.Result
	if err := o.stage(ctx, StageTranscribe, func(ctx context.Context) error {
		var err error
		transcription, err = o.engines.Transcriber.Transcribe(ctx, paths.ExtractedAudio, o.sourceLanguage)
		return err
	}); err != nil {
		return Result{}, err
	}

	var translated string
	if err := o.stage(ctx, StageTranslate, func(ctx context.Context) error {
		var err error
		translated, err = o.engines.Translator.Translate(ctx, transcription.Text)
		return err
	}); err != nil {
		return Result{}, err
	}

	if err := o.stage(ctx, StageSynthesize, func(ctx context.Context) error {
		_, err := o.engines.Synthesizer.SynthesizeToFile(ctx, translated, paths.SynthesisAudio)
		return err
	}); err != nil {
		return Result{}, err
	}

	if err := o.stage(ctx, StageMux, func(ctx context.Context) error {
		_, err := o.engines.Media.MuxAudioWithVideo(ctx, paths.SourceVideo, paths.SynthesisAudio, paths.OutputVideo)
		return err
	}); err != nil {
		return Result{}, err
	}

	return Result{
		TranscriptText:   transcription.Text,
		TranslatedText:   translated,
		DetectedLanguage: transcription.Language,
		OutputVideoPath:  paths.OutputVideo,
	}, nil
}

func (o *Orchestrator) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	stageCtx := services.WithStage(ctx, name)
	logger := logging.WithContext(stageCtx, o.logger)
	start := time.Now()
	logger.Info("stage started", logging.String(logging.FieldEventType, "stage_start"))

	if err := fn(stageCtx); err != nil {
		logger.Error("stage failed",
			logging.String(logging.FieldEventType, "stage_failure"),
			logging.Duration("elapsed", time.Since(start)),
			logging.Error(err),
		)
		return err
	}

	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("elapsed", time.Since(start)),
	)
	return nil
}
