// Package reconcile turns raw transcription payloads into display-ready results.
package reconcile

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	apperrors "mockai/internal/errors"
	"mockai/internal/models"
)

const (
	// LongPauseThreshold is the shortest silence, in seconds, counted as a long pause.
	LongPauseThreshold = 10.0
	// BaseScore is the starting point of the fallback score.
	BaseScore = 10.0
)

// DefaultFillerWords are always reported, with zero counts when unused.
var DefaultFillerWords = []string{"um", "uh", "like", "so", "you know"}

// Reconcile maps a raw transcription into a display model. Optional fields
// default to empty values; a missing transcript or word list is an
// ErrMalformedResult.
func Reconcile(questionID string, raw *models.RawTranscription) (*models.ResultDisplay, error) {
	if raw == nil {
		return nil, malformed(errors.New("empty payload"))
	}
	if raw.Transcript == nil {
		return nil, malformed(errors.New("missing transcript"))
	}
	if raw.Words == nil {
		return nil, malformed(errors.New("missing words"))
	}

	counts := FillerCounts(raw.FillerWords)
	total := 0
	for _, n := range counts {
		total += n
	}

	pauses := LongPauses(raw.LongPauses, raw.PauseDurations)

	var score float64
	if raw.Score != nil && !math.IsNaN(*raw.Score) {
		score = *raw.Score
	} else {
		score = CalculateScore(total, len(pauses), raw.PositiveSentimentScore, raw.NegativeSentimentScore)
	}

	feedback := ""
	if raw.AIFeedback != nil {
		feedback = strings.TrimSpace(*raw.AIFeedback)
	}

	words := make([]models.Word, len(raw.Words))
	copy(words, raw.Words)

	return &models.ResultDisplay{
		QuestionID:          questionID,
		InterviewerQuestion: raw.InterviewerQuestion,
		Transcript:          *raw.Transcript,
		Words:               words,
		FillerWordCounts:    counts,
		TotalFillerWords:    total,
		LongPauses:          pauses,
		LongPauseCount:      len(pauses),
		PauseSummary:        summarize(pauses),
		Feedback:            feedback,
		Score:               int(math.Round(score)),
		Status:              models.ResultComplete,
	}, nil
}

// FromResult builds the display model of a stored result.
func FromResult(r *models.Result) *models.ResultDisplay {
	counts := FillerCounts(r.FillerWords)
	total := 0
	for _, n := range counts {
		total += n
	}

	words := r.Words
	if words == nil {
		words = []models.Word{}
	}
	pauses := r.LongPauses
	if pauses == nil {
		pauses = []models.LongPause{}
	}
	summary := r.PauseDurationsSummary
	if summary == "" {
		summary = summarize(pauses)
	}

	return &models.ResultDisplay{
		QuestionID:       r.QuestionID.Hex(),
		Status:           r.Status,
		FailedStage:      r.FailedStage,
		Transcript:       r.Transcript,
		Words:            words,
		FillerWordCounts: counts,
		TotalFillerWords: total,
		LongPauses:       pauses,
		LongPauseCount:   len(pauses),
		PauseSummary:     summary,
		Feedback:         r.AIFeedback,
		Score:            r.Score,
		AudioURL:         r.AudioURL,
		VideoURL:         r.VideoURL,
	}
}

// FillerCounts merges reported filler words over the defaults. Words are
// lowercased; negative counts are treated as zero.
func FillerCounts(reported []models.FillerWord) map[string]int {
	counts := make(map[string]int, len(DefaultFillerWords)+len(reported))
	for _, w := range DefaultFillerWords {
		counts[w] = 0
	}
	for _, f := range reported {
		word := strings.ToLower(strings.TrimSpace(f.Word))
		if word == "" || f.Count <= 0 {
			continue
		}
		counts[word] += f.Count
	}
	return counts
}

// FillerWords flattens counts into a slice, defaults first then alphabetical.
func FillerWords(counts map[string]int) []models.FillerWord {
	rank := make(map[string]int, len(DefaultFillerWords))
	for i, w := range DefaultFillerWords {
		rank[w] = i + 1
	}

	out := make([]models.FillerWord, 0, len(counts))
	for w, n := range counts {
		out = append(out, models.FillerWord{Word: w, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		ri, rj := rank[out[i].Word], rank[out[j].Word]
		switch {
		case ri != 0 && rj != 0:
			return ri < rj
		case ri != 0:
			return true
		case rj != 0:
			return false
		default:
			return out[i].Word < out[j].Word
		}
	})
	return out
}

// LongPauses returns the reported pause intervals, or when none were reported,
// the pause durations at or above LongPauseThreshold.
func LongPauses(reported []models.LongPause, durations []float64) []models.LongPause {
	pauses := make([]models.LongPause, 0, len(reported))
	if len(reported) > 0 {
		for _, p := range reported {
			if p.Duration <= 0 && p.End > p.Start {
				p.Duration = p.End - p.Start
			}
			pauses = append(pauses, p)
		}
		return pauses
	}

	for _, d := range durations {
		if d >= LongPauseThreshold {
			pauses = append(pauses, models.LongPause{Duration: d})
		}
	}
	return pauses
}

// CalculateScore is used when the model does not return a score: the base
// score minus one point per filler word and long pause, adjusted by sentiment.
func CalculateScore(fillerWords, longPauses int, positive, negative float64) float64 {
	return BaseScore - float64(fillerWords) - float64(longPauses) + (positive - negative)
}

// FormatSeconds renders durations like "2 minutes and 3 seconds", comma separated.
func FormatSeconds(durations []float64) string {
	parts := make([]string, 0, len(durations))
	for _, d := range durations {
		total := int(math.Round(d))
		minutes, seconds := total/60, total%60

		switch {
		case minutes > 0 && seconds > 0:
			parts = append(parts, fmt.Sprintf("%s and %s", plural(minutes, "minute"), plural(seconds, "second")))
		case minutes > 0:
			parts = append(parts, plural(minutes, "minute"))
		default:
			parts = append(parts, plural(seconds, "second"))
		}
	}
	return strings.Join(parts, ", ")
}

// FormatPauseDurations summarizes the long pauses among durations.
func FormatPauseDurations(durations []float64) string {
	return summarize(LongPauses(nil, durations))
}

func summarize(pauses []models.LongPause) string {
	if len(pauses) == 0 {
		return "0 seconds"
	}
	durations := make([]float64, len(pauses))
	for i, p := range pauses {
		durations[i] = p.Duration
	}
	return FormatSeconds(durations)
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func malformed(cause error) error {
	return apperrors.NewStageError(apperrors.StageReconcile, apperrors.ErrMalformedResult, cause)
}
