// internal/config/scoring.go
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Scoring maps the scoring move categories to point deltas.
type Scoring struct {
	PointsWasteToTableau      int `json:"points_waste_to_tableau"`
	PointsWasteToFoundation   int `json:"points_waste_to_foundation"`
	PointsTableauToFoundation int `json:"points_tableau_to_foundation"`
	PointsFoundationToTableau int `json:"points_foundation_to_tableau"`
	PointsTurnOverTableauCard int `json:"points_turn_over_tableau_card"`
}

// DefaultScoring returns the standard Klondike scoring.
func DefaultScoring() Scoring {
	return Scoring{
		PointsWasteToTableau:      5,
		PointsWasteToFoundation:   10,
		PointsTableauToFoundation: 10,
		PointsFoundationToTableau: -15,
		PointsTurnOverTableauCard: 5,
	}
}

// LoadScoring reads the scoring constants from the environment, falling back to
// DefaultScoring for anything unset or unparseable.
func LoadScoring() Scoring {
	def := DefaultScoring()
	return Scoring{
		PointsWasteToTableau:      getEnvInt("POINTS_WASTE_TO_TABLEAU", def.PointsWasteToTableau),
		PointsWasteToFoundation:   getEnvInt("POINTS_WASTE_TO_FOUNDATION", def.PointsWasteToFoundation),
		PointsTableauToFoundation: getEnvInt("POINTS_TABLEAU_TO_FOUNDATION", def.PointsTableauToFoundation),
		PointsFoundationToTableau: getEnvInt("POINTS_FOUNDATION_TO_TABLEAU", def.PointsFoundationToTableau),
		PointsTurnOverTableauCard: getEnvInt("POINTS_TURN_OVER_TABLEAU_CARD", def.PointsTurnOverTableauCard),
	}
}

// LoadScoringFile reads a JSON scoring file. Keys missing from the file keep their
// default values.
func LoadScoringFile(path string) (Scoring, error) {
	s := DefaultScoring()
	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("failed to read scoring config: %w", err)
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return DefaultScoring(), fmt.Errorf("failed to unmarshal scoring config: %w", err)
	}
	return s, nil
}
