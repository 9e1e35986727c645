package browsing

import (
	"errors"
	"fmt"
)

// ScoreCard is a judge model's rating of one summary, 1 (worst) to 5 (best) per criterion.
type ScoreCard struct {
	Categorization     int    `json:"categorization"`
	KeywordExtraction  int    `json:"keyword_extraction"`
	SentimentAnalysis  int    `json:"sentiment_analysis"`
	ClarityStructure   int    `json:"clarity_structure"`
	DetailCompleteness int    `json:"detail_completeness"`
	Justification      string `json:"justification"`
}

// Criteria names the ScoreCard criteria in Scores order.
var Criteria = []string{
	"Categorisation",
	"Keywords and Tags",
	"Sentiment Analysis",
	"Clarity and Structure",
	"Detail and Completeness",
}

// Scores returns the numeric criteria in Criteria order.
func (s ScoreCard) Scores() []int {
	return []int{s.Categorization, s.KeywordExtraction, s.SentimentAnalysis, s.ClarityStructure, s.DetailCompleteness}
}

// Validate rejects scores outside 1..5.
func (s ScoreCard) Validate() error {
	for i, v := range s.Scores() {
		if v < 1 || v > 5 {
			return fmt.Errorf("%s score %d out of range 1..5", Criteria[i], v)
		}
	}
	return nil
}

// AverageScores averages each criterion over the cards.
func AverageScores(cards []ScoreCard) ([]float64, error) {
	if len(cards) == 0 {
		return nil, errors.New("no score cards")
	}
	avg := make([]float64, len(Criteria))
	for _, c := range cards {
		for i, v := range c.Scores() {
			avg[i] += float64(v)
		}
	}
	for i := range avg {
		avg[i] /= float64(len(cards))
	}
	return avg, nil
}
