package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	apperrors "mockai/internal/errors"
	"mockai/internal/models"
)

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }

func TestReconcile(t *testing.T) {
	t.Run("reports filler counts and pause summary", func(t *testing.T) {
		raw := &models.RawTranscription{
			Transcript:  strPtr("um so I think um we shipped it um"),
			Words:       []models.Word{{Word: "um", Start: 0, End: 0.3}},
			FillerWords: []models.FillerWord{{Word: "um", Count: 3}},
			LongPauses:  []models.LongPause{{Start: 10, End: 22, Duration: 12}},
			AIFeedback:  strPtr("Good structure."),
			Score:       floatPtr(6.6),
		}

		display, err := Reconcile("q1", raw)

		require.NoError(t, err)
		assert.Equal(t, "q1", display.QuestionID)
		assert.Equal(t, 3, display.FillerWordCounts["um"])
		assert.Equal(t, 0, display.FillerWordCounts["you know"])
		assert.Equal(t, 3, display.TotalFillerWords)
		assert.Equal(t, 1, display.LongPauseCount)
		assert.Contains(t, display.PauseSummary, "12 seconds")
		assert.Equal(t, "Good structure.", display.Feedback)
		assert.Equal(t, 7, display.Score)
	})

	t.Run("keeps the model score", func(t *testing.T) {
		raw := &models.RawTranscription{
			Transcript:  strPtr("..."),
			Words:       []models.Word{},
			FillerWords: []models.FillerWord{},
			LongPauses:  []models.LongPause{},
			Score:       floatPtr(87),
		}

		display, err := Reconcile("q1", raw)

		require.NoError(t, err)
		assert.Equal(t, 87, display.Score)
		assert.Equal(t, "0 seconds", display.PauseSummary)
	})

	t.Run("missing feedback is empty, not an error", func(t *testing.T) {
		raw := &models.RawTranscription{Transcript: strPtr("answer"), Words: []models.Word{}}

		display, err := Reconcile("q1", raw)

		require.NoError(t, err)
		assert.Equal(t, "", display.Feedback)
		assert.NotNil(t, display.LongPauses)
		assert.Equal(t, 0, display.TotalFillerWords)
		assert.Len(t, display.FillerWordCounts, len(DefaultFillerWords))
	})

	t.Run("missing transcript is malformed", func(t *testing.T) {
		raw := &models.RawTranscription{Words: []models.Word{}}

		_, err := Reconcile("q1", raw)

		assert.ErrorIs(t, err, apperrors.ErrMalformedResult)
		stage, ok := apperrors.StageOf(err)
		assert.True(t, ok)
		assert.Equal(t, apperrors.StageReconcile, stage)
	})

	t.Run("missing words is malformed", func(t *testing.T) {
		_, err := Reconcile("q1", &models.RawTranscription{Transcript: strPtr("answer")})

		assert.ErrorIs(t, err, apperrors.ErrMalformedResult)
	})

	t.Run("nil payload is malformed", func(t *testing.T) {
		_, err := Reconcile("q1", nil)

		assert.ErrorIs(t, err, apperrors.ErrMalformedResult)
	})

	t.Run("falls back to calculated score", func(t *testing.T) {
		raw := &models.RawTranscription{
			Transcript:             strPtr("answer"),
			Words:                  []models.Word{},
			FillerWords:            []models.FillerWord{{Word: "Like", Count: 2}, {Word: "uh", Count: 1}},
			PauseDurations:         []float64{4, 11.2},
			PositiveSentimentScore: 0.8,
			NegativeSentimentScore: 0.1,
		}

		display, err := Reconcile("q1", raw)

		require.NoError(t, err)
		// 10 - 3 fillers - 1 long pause + 0.7
		assert.Equal(t, 7, display.Score)
		assert.Equal(t, 2, display.FillerWordCounts["like"])
		assert.Equal(t, 1, display.LongPauseCount)
		assert.Equal(t, "11 seconds", display.PauseSummary)
	})
}

func TestLongPauses(t *testing.T) {
	t.Run("fills missing durations from the interval", func(t *testing.T) {
		pauses := LongPauses([]models.LongPause{{Start: 3, End: 15}}, nil)

		require.Len(t, pauses, 1)
		assert.Equal(t, 12.0, pauses[0].Duration)
	})

	t.Run("threshold is inclusive", func(t *testing.T) {
		pauses := LongPauses(nil, []float64{9.99, 10, 25})

		assert.Len(t, pauses, 2)
	})
}

func TestFormatSeconds(t *testing.T) {
	tests := []struct {
		name      string
		durations []float64
		expected  string
	}{
		{"seconds", []float64{12}, "12 seconds"},
		{"one second", []float64{1}, "1 second"},
		{"minutes and seconds", []float64{123}, "2 minutes and 3 seconds"},
		{"whole minutes", []float64{120}, "2 minutes"},
		{"one minute one second", []float64{61}, "1 minute and 1 second"},
		{"rounds", []float64{12.6}, "13 seconds"},
		{"several", []float64{12, 65}, "12 seconds, 1 minute and 5 seconds"},
		{"none", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatSeconds(tt.durations))
		})
	}
}

func TestFormatPauseDurations(t *testing.T) {
	assert.Equal(t, "12 seconds", FormatPauseDurations([]float64{3, 12}))
	assert.Equal(t, "0 seconds", FormatPauseDurations([]float64{3}))
}

func TestFillerWords(t *testing.T) {
	counts := map[string]int{"basically": 2, "um": 1, "actually": 1, "you know": 0}

	words := FillerWords(counts)

	require.Len(t, words, 4)
	assert.Equal(t, "um", words[0].Word)
	assert.Equal(t, "you know", words[1].Word)
	assert.Equal(t, "actually", words[2].Word)
	assert.Equal(t, "basically", words[3].Word)
}

func TestFromResult(t *testing.T) {
	id := primitive.NewObjectID()
	result := &models.Result{
		QuestionID:  id,
		Transcript:  "answer",
		FillerWords: []models.FillerWord{{Word: "um", Count: 2}},
		LongPauses:  []models.LongPause{{Start: 1, End: 14, Duration: 13}},
		AIFeedback:  "Be concise.",
		Score:       8,
		AudioURL:    "https://example.com/a.mp3",
	}

	display := FromResult(result)

	assert.Equal(t, id.Hex(), display.QuestionID)
	assert.Equal(t, 2, display.TotalFillerWords)
	assert.Equal(t, "13 seconds", display.PauseSummary)
	assert.Equal(t, 8, display.Score)
	assert.Equal(t, "https://example.com/a.mp3", display.AudioURL)
	assert.NotNil(t, display.Words)
}
