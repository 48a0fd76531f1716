package assessment

import (
	"fmt"
	"math"

	"github.com/uwezocare/uwezo/core"
)

// Interpretation bands. They are calibrated to the default template of
// 6 sections x 5 questions (total range 30-150); adding sections raises
// the achievable range without renormalizing.
const (
	InterpretationStrong   = "Strong independence, minimal support needed."
	InterpretationModerate = "Moderate independence, some areas for growth."
	InterpretationSupport  = "Areas requiring targeted support and development."
)

// Rating thresholds for the strengths/needs classification; a rating of
// 3 is neutral and lands in neither bucket.
const (
	strengthMaxRating = 2
	needMinRating     = 4

	MinRating = 1
	MaxRating = 5
)

// NoAverage is reported for sections with no answered questions.
const NoAverage = "N/A"

func validRating(rating int) bool {
	return rating >= MinRating && rating <= MaxRating
}

// ComputeTotal sums all ratings present in responses. Ratings outside
// [1,5] are rejected. Pure: no side effects, deterministic.
func ComputeTotal(responses map[Key]int) (int, error) {
	var total int
	for k, rating := range responses {
		if !validRating(rating) {
			return 0, core.NewValidationError(
				fmt.Errorf("rating %d for %s is out of range", rating, k),
				core.FieldError{Field: "responses", Error: fmt.Sprintf("rating for %s must be between %d and %d", k, MinRating, MaxRating)},
			)
		}
		total += rating
	}
	return total, nil
}

// Interpret maps a total score to its interpretation band.
func Interpret(total int) string {
	switch {
	case total >= 30 && total <= 60:
		return InterpretationStrong
	case total >= 61 && total <= 90:
		return InterpretationModerate
	default:
		return InterpretationSupport
	}
}

type (
	// RatedQuestion snapshots one answered question for the
	// strengths/needs report.
	RatedQuestion struct {
		Key      Key    `json:"key"`
		Section  string `json:"section"`
		Question string `json:"question"`
		Rating   int    `json:"rating"`
	}

	// SectionStat carries a section's average rating to one decimal;
	// Display is the NoAverage sentinel when nothing was answered.
	SectionStat struct {
		Title    string  `json:"title"`
		Answered int     `json:"answered"`
		Average  float64 `json:"average"`
		Display  string  `json:"display"`
	}

	Classification struct {
		Strengths []RatedQuestion `json:"strengths"`
		Needs     []RatedQuestion `json:"needs"`
		Sections  []SectionStat   `json:"sections"`
	}
)

// Classify partitions answered questions into strengths (rating <= 2)
// and support needs (rating >= 4) and computes per-section averages.
func Classify(sectionTitles []string, questions [][]string, responses map[Key]int) Classification {
	cls := Classification{
		Strengths: make([]RatedQuestion, 0),
		Needs:     make([]RatedQuestion, 0),
		Sections:  make([]SectionStat, 0, len(sectionTitles)),
	}

	for si, title := range sectionTitles {
		var sum, count int
		if si >= len(questions) {
			break
		}
		for qi, text := range questions[si] {
			rating, ok := responses[Key{Section: si, Question: qi}]
			if !ok {
				continue
			}
			sum += rating
			count++

			rq := RatedQuestion{
				Key:      Key{Section: si, Question: qi},
				Section:  title,
				Question: text,
				Rating:   rating,
			}
			switch {
			case rating <= strengthMaxRating:
				cls.Strengths = append(cls.Strengths, rq)
			case rating >= needMinRating:
				cls.Needs = append(cls.Needs, rq)
			}
		}

		stat := SectionStat{Title: title, Answered: count, Display: NoAverage}
		if count > 0 {
			stat.Average = math.Round(float64(sum)/float64(count)*10) / 10
			stat.Display = fmt.Sprintf("%.1f", stat.Average)
		}
		cls.Sections = append(cls.Sections, stat)
	}
	return cls
}
