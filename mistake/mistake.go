// Package mistake defines the captured-error types shared by lessonwatch
// (capture side) and deckforge (synthesis side). These are the wire
// contract of the flush message: both sides import this package.
package mistake

import (
	"errors"
	"strings"
	"time"
)

// ErrIncomplete is returned by New when any of the three answer texts is
// empty. Incomplete records must never reach the buffer.
var ErrIncomplete = errors.New("mistake: prompt, answer and solution must all be non-empty")

// audioVocabulary marks exercise kinds that involve listening or speaking.
// Matched as substrings against the lowercased exercise kind.
var audioVocabulary = []string{"listen", "speak", "audio"}

// Record is one captured incorrect-answer event.
type Record struct {
	Prompt        string    `json:"prompt"`
	UserAnswer    string    `json:"user_answer"`
	CorrectAnswer string    `json:"correct_answer"`
	ExerciseKind  string    `json:"exercise_kind"`
	FromLanguage  string    `json:"from_language"`
	ToLanguage    string    `json:"to_language"`
	IsAudio       bool      `json:"is_audio"`
	CapturedAt    time.Time `json:"captured_at"`
}

// New builds a Record, trimming whitespace and stamping the capture time.
// It fails with ErrIncomplete when prompt, userAnswer or correctAnswer is
// empty after trimming; a partially extracted exercise produces no record.
func New(prompt, userAnswer, correctAnswer, kind, from, to string) (Record, error) {
	prompt = strings.TrimSpace(prompt)
	userAnswer = strings.TrimSpace(userAnswer)
	correctAnswer = strings.TrimSpace(correctAnswer)

	if prompt == "" || userAnswer == "" || correctAnswer == "" {
		return Record{}, ErrIncomplete
	}

	return Record{
		Prompt:        prompt,
		UserAnswer:    userAnswer,
		CorrectAnswer: correctAnswer,
		ExerciseKind:  kind,
		FromLanguage:  from,
		ToLanguage:    to,
		IsAudio:       IsAudioKind(kind),
		CapturedAt:    time.Now(),
	}, nil
}

// IsAudioKind reports whether an exercise kind is a listening/speaking
// exercise, by matching it against the audio vocabulary.
func IsAudioKind(kind string) bool {
	k := strings.ToLower(kind)
	for _, word := range audioVocabulary {
		if strings.Contains(k, word) {
			return true
		}
	}
	return false
}
