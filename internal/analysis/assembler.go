package analysis

import (
	"context"
	"log/slog"

	"formcheck/internal/blobstore"
	"formcheck/internal/logging"
	"formcheck/internal/narrative"
	"formcheck/internal/scan"
	"formcheck/internal/services"
	"formcheck/internal/speech"
)

// Assembler turns the best frame into a published analysis record.
type Assembler struct {
	uploader blobstore.Uploader
	narrator narrative.Generator
	speaker  speech.Synthesizer
	logger   *slog.Logger
}

// NewAssembler wires the collaborators. speaker may be nil to skip narration.
func NewAssembler(uploader blobstore.Uploader, narrator narrative.Generator, speaker speech.Synthesizer, logger *slog.Logger) *Assembler {
	return &Assembler{
		uploader: uploader,
		narrator: narrator,
		speaker:  speaker,
		logger:   logging.NewComponentLogger(logger, "assembler"),
	}
}

// Assemble publishes the frame image, obtains and parses the narrative, and
// attaches narrated audio when it can be produced. Only an image that cannot
// be encoded or stored fails the analysis.
func (a *Assembler) Assemble(ctx context.Context, best *scan.BestFrame) (Record, error) {
	logger := logging.WithContext(ctx, a.logger)

	png, err := best.Frame.EncodePNG()
	if err != nil {
		return Record{}, services.Wrap(services.ErrStorage, "assemble", "encode image", "", err)
	}
	image, err := a.uploader.Put(ctx, blobstore.Image, png)
	if err != nil {
		return Record{}, services.Wrap(services.ErrStorage, "assemble", "upload image", "", err)
	}

	outcome := a.narrator.Generate(ctx, png, best.MinAngle)
	if outcome.Err != nil {
		logging.WarnWithContext(logger, "narrative unavailable, using fallback", "narrative_failed",
			logging.Error(outcome.Err),
			logging.String(logging.FieldErrorHint, "check openai api key and vision model"),
			logging.String(logging.FieldImpact, "generic feedback returned"),
		)
	}
	text, fallback := narrative.Resolve(outcome, best.MinAngle)
	if fallback && outcome.Err == nil {
		logging.WarnWithContext(logger, "narrative missing expected sections, using fallback", "narrative_unstructured",
			logging.String(logging.FieldImpact, "generic feedback returned"),
		)
	}
	sections := narrative.Parse(text)

	record := Record{
		FrameIndex:        best.FrameIndex,
		TotalFrames:       best.TotalFrames,
		ProcessedFrames:   best.ProcessedFrames,
		ImageURL:          image.URL,
		MinKneeAngle:      best.MinAngle,
		TextAnalysis:      text,
		Summary:           sections.Summary,
		Improvements:      sections.Improvements,
		RiskFactor:        sections.RiskFactor,
		NarrativeFallback: fallback,
	}
	record.AudioURL = a.narrate(ctx, logger, sections.Summary)
	return record, nil
}

func (a *Assembler) narrate(ctx context.Context, logger *slog.Logger, summary string) *string {
	if a.speaker == nil {
		return nil
	}
	out := a.speaker.Synthesize(ctx, summary)
	if out.Err != nil {
		logging.WarnWithContext(logger, "speech synthesis failed", "speech_failed",
			logging.Error(out.Err),
			logging.String(logging.FieldImpact, "audio_url omitted"),
		)
		return nil
	}
	blob, err := a.uploader.Put(ctx, blobstore.Audio, out.Audio)
	if err != nil {
		logging.WarnWithContext(logger, "audio upload failed", "audio_upload_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check data_dir permissions and free space"),
			logging.String(logging.FieldImpact, "audio_url omitted"),
		)
		return nil
	}
	return &blob.URL
}
