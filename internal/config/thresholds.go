package config

import (
	_ "embed"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed thresholds.yaml
var thresholdsData []byte

// Thresholds are the operator-facing decision knobs.
type Thresholds struct {
	EVThreshold       float64
	ModelConfidence   float64
	MinSamples        int
	MaxBetsPerSegment int
	NarrowTolerance   time.Duration
	WideTolerance     time.Duration
	FuzzyMinScore     float64
	FuzzyMargin       float64

	// Settlement only trusts links at or above this confidence.
	MinMatchConfidence float64
}

type thresholdsFile struct {
	EVThreshold       float64 `yaml:"ev_threshold"`
	ModelConfidence   float64 `yaml:"model_confidence_threshold"`
	MinSamples        int     `yaml:"min_historical_samples"`
	MaxBetsPerSegment int     `yaml:"max_bets_per_segment"`
	NarrowHours       float64 `yaml:"match_date_tolerance_narrow_hours"`
	WideHours         float64 `yaml:"match_date_tolerance_wide_hours"`
	FuzzyMinScore     float64 `yaml:"fuzzy_min_score"`
	FuzzyMargin       float64 `yaml:"fuzzy_margin"`
	MinMatchConf      float64 `yaml:"min_match_confidence"`
}

// DefaultThresholds returns the embedded defaults without env overrides.
func DefaultThresholds() Thresholds {
	f := thresholdsFile{
		EVThreshold:       0.05,
		ModelConfidence:   0.65,
		MinSamples:        5,
		MaxBetsPerSegment: 3,
		NarrowHours:       6,
		WideHours:         24,
		FuzzyMinScore:     0.88,
		FuzzyMargin:       0.03,
		MinMatchConf:      0.75,
	}
	_ = yaml.Unmarshal(thresholdsData, &f)
	return Thresholds{
		EVThreshold:       f.EVThreshold,
		ModelConfidence:   f.ModelConfidence,
		MinSamples:        f.MinSamples,
		MaxBetsPerSegment: f.MaxBetsPerSegment,
		NarrowTolerance:   hours(f.NarrowHours),
		WideTolerance:     hours(f.WideHours),
		FuzzyMinScore:     f.FuzzyMinScore,
		FuzzyMargin:       f.FuzzyMargin,

		MinMatchConfidence: f.MinMatchConf,
	}
}

// LoadThresholds applies env overrides on top of the embedded defaults.
func LoadThresholds() Thresholds {
	t := DefaultThresholds()
	t.EVThreshold = envFloat("EV_THRESHOLD", t.EVThreshold)
	t.ModelConfidence = envFloat("MODEL_CONFIDENCE_THRESHOLD", t.ModelConfidence)
	t.MinSamples = envInt("MIN_HISTORICAL_SAMPLES", t.MinSamples)
	t.MaxBetsPerSegment = envInt("MAX_BETS_PER_SEGMENT", t.MaxBetsPerSegment)
	t.NarrowTolerance = envDuration("MATCH_DATE_TOLERANCE_NARROW", t.NarrowTolerance)
	t.WideTolerance = envDuration("MATCH_DATE_TOLERANCE_WIDE", t.WideTolerance)
	t.FuzzyMinScore = envFloat("FUZZY_MIN_SCORE", t.FuzzyMinScore)
	t.FuzzyMargin = envFloat("FUZZY_MARGIN", t.FuzzyMargin)
	t.MinMatchConfidence = envFloat("MIN_MATCH_CONFIDENCE", t.MinMatchConfidence)
	return t
}

func hours(h float64) time.Duration {
	return time.Duration(h * float64(time.Hour))
}
