package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Word is a transcribed word with its timing in seconds.
type Word struct {
	Word           string  `json:"word" bson:"word"`
	Start          float64 `json:"start" bson:"start"`
	End            float64 `json:"end" bson:"end"`
	Confidence     float64 `json:"confidence,omitempty" bson:"confidence,omitempty"`
	PunctuatedWord string  `json:"punctuated_word,omitempty" bson:"punctuatedWord,omitempty"`
}

// FillerWord counts occurrences of one filler word.
type FillerWord struct {
	Word  string `json:"word" bson:"word"`
	Count int    `json:"count" bson:"count"`
}

// LongPause is a silence interval in seconds.
type LongPause struct {
	Start    float64 `json:"start" bson:"start"`
	End      float64 `json:"end" bson:"end"`
	Duration float64 `json:"duration" bson:"duration"`
}

// RawTranscription is the payload returned by the transcription service.
// Transcript and Words are required; nil means the field was absent.
type RawTranscription struct {
	Transcript             *string      `json:"transcript"`
	InterviewerQuestion    string       `json:"interviewer_question,omitempty"`
	Words                  []Word       `json:"words"`
	FillerWords            []FillerWord `json:"filler_words,omitempty"`
	LongPauses             []LongPause  `json:"long_pauses,omitempty"`
	PauseDurations         []float64    `json:"pause_durations,omitempty"`
	AIFeedback             *string      `json:"ai_feedback,omitempty"`
	Score                  *float64     `json:"score,omitempty"`
	PositiveSentimentScore float64      `json:"positive_sentiment_score,omitempty"`
	NegativeSentimentScore float64      `json:"negative_sentiment_score,omitempty"`
	NeutralSentimentScore  float64      `json:"neutral_sentiment_score,omitempty"`
}

// ResultDisplay is the display-ready view of an analysed answer.
type ResultDisplay struct {
	QuestionID          string         `json:"questionId" example:"507f1f77bcf86cd799439011"`
	Status              ResultStatus   `json:"status,omitempty" example:"complete"`
	FailedStage         string         `json:"failedStage,omitempty"`
	InterviewerQuestion string         `json:"interviewerQuestion,omitempty"`
	Transcript          string         `json:"transcript"`
	Words               []Word         `json:"words"`
	FillerWordCounts    map[string]int `json:"fillerWordCounts"`
	TotalFillerWords    int            `json:"totalFillerWords" example:"4"`
	LongPauses          []LongPause    `json:"longPauses"`
	LongPauseCount      int            `json:"longPauseCount" example:"1"`
	PauseSummary        string         `json:"pauseSummary" example:"12 seconds"`
	Feedback            string         `json:"feedback"`
	Score               int            `json:"score" example:"87"`
	AudioURL            string         `json:"audioUrl,omitempty"`
	VideoURL            string         `json:"videoUrl,omitempty"`
}

// ResultStatus tracks the analysis of an answer.
type ResultStatus string

const (
	// ResultPending indicates the question has no analysed answer yet.
	ResultPending ResultStatus = "pending"
	// ResultProcessing indicates an uploaded answer is being analysed.
	ResultProcessing ResultStatus = "processing"
	// ResultComplete indicates the analysis was stored.
	ResultComplete ResultStatus = "complete"
	// ResultFailed indicates the analysis failed (user can retry).
	ResultFailed ResultStatus = "failed"
)

// Result is the persisted analysis of one question, unique per QuestionID.
type Result struct {
	ID                    primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	QuestionID            primitive.ObjectID `json:"questionId" bson:"questionId"`
	UserID                string             `json:"userId" bson:"userId"`
	Status                ResultStatus       `json:"status" bson:"status"`
	FailedStage           string             `json:"failedStage,omitempty" bson:"failedStage,omitempty"`
	Error                 string             `json:"error,omitempty" bson:"error,omitempty"`
	Mode                  RecordingMode      `json:"mode,omitempty" bson:"mode,omitempty"`
	Transcript            string             `json:"transcript" bson:"transcript"`
	Words                 []Word             `json:"words" bson:"words"`
	FillerWords           []FillerWord       `json:"fillerWords" bson:"fillerWords"`
	LongPauses            []LongPause        `json:"longPauses" bson:"longPauses"`
	PauseDurationsSummary string             `json:"pauseDurationsSummary" bson:"pauseDurationsSummary"`
	AIFeedback            string             `json:"aiFeedback" bson:"aiFeedback"`
	Score                 int                `json:"score" bson:"score"`
	AudioKey              string             `json:"-" bson:"audioKey,omitempty"` // Object key, not exposed in JSON
	VideoKey              string             `json:"-" bson:"videoKey,omitempty"`
	AudioURL              string             `json:"audioUrl,omitempty" bson:"audioUrl,omitempty"`
	VideoURL              string             `json:"videoUrl,omitempty" bson:"videoUrl,omitempty"`
	InterviewDate         time.Time          `json:"interviewDate" bson:"interviewDate"`
	CreatedAt             time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt             time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// ResultUpdate is the set of fields written when an analysis completes.
type ResultUpdate struct {
	Transcript            string
	Words                 []Word
	FillerWords           []FillerWord
	LongPauses            []LongPause
	PauseDurationsSummary string
	AIFeedback            string
	Score                 int
	AudioKey              string
	VideoKey              string
	AudioURL              string
	VideoURL              string
}

// ResultListResponse is the response for listing results.
type ResultListResponse struct {
	Items      []Result   `json:"items"`
	Pagination Pagination `json:"pagination"`
}

// Pagination contains pagination metadata.
type Pagination struct {
	Page       int `json:"page" example:"1"`
	Limit      int `json:"limit" example:"10"`
	TotalItems int `json:"totalItems" example:"42"`
	TotalPages int `json:"totalPages" example:"5"`
}
