package transcription

import "cloud.google.com/go/vertexai/genai"

// Schema is the response schema requested from the model. Field names match
// models.RawTranscription.
func Schema() *genai.Schema {
	number := func(desc string) *genai.Schema {
		return &genai.Schema{Type: genai.TypeNumber, Description: desc}
	}
	str := func(desc string) *genai.Schema {
		return &genai.Schema{Type: genai.TypeString, Description: desc}
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"transcript":           str("The full transcribed text of the answer."),
			"interviewer_question": str("The question exactly as it was given."),
			"words": {
				Type:        genai.TypeArray,
				Description: "Every spoken word with its timestamps.",
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"word":            str("A word from the transcript."),
						"start":           number("Start time in seconds."),
						"end":             number("End time in seconds."),
						"confidence":      number("Recognition confidence."),
						"punctuated_word": str("The word with punctuation."),
					},
					Required: []string{"word", "start", "end", "confidence", "punctuated_word"},
				},
			},
			"filler_words": {
				Type:        genai.TypeArray,
				Description: "Filler words and their counts.",
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"word":  str("The filler word."),
						"count": number("Number of occurrences."),
					},
					Required: []string{"word", "count"},
				},
			},
			"pause_durations": {
				Type:        genai.TypeArray,
				Description: "Pause durations in seconds, only gaps of 5 seconds or more.",
				Items:       &genai.Schema{Type: genai.TypeNumber},
			},
			"ai_feedback":              str("Interviewer feedback on the answer."),
			"score":                    number("Score of the answer from 0 to 100."),
			"positive_sentiment_score": number("Positive sentiment, 0 to 100."),
			"negative_sentiment_score": number("Negative sentiment, 0 to 100."),
			"neutral_sentiment_score":  number("Neutral sentiment, 0 to 100."),
		},
		Required: []string{
			"transcript", "interviewer_question", "words", "filler_words", "pause_durations",
			"ai_feedback", "score", "positive_sentiment_score", "negative_sentiment_score", "neutral_sentiment_score",
		},
	}
}
