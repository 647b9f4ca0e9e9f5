package config

import (
	"time"
)

// DispatchConfig tunes candidate search and the offer escalation loop.
// Radii are kilometers; the ambulance search expands ring by ring while
// the hospital search is a single qualified query.
type DispatchConfig struct {
	SearchRadiusStepKM    float64       `yaml:"search_radius_step_km"`
	SearchRadiusMaxKM     float64       `yaml:"search_radius_max_km"`
	HospitalRadiusKM      float64       `yaml:"hospital_radius_km"`
	MaxCandidates         int           `yaml:"max_candidates"`
	OfferWindow           time.Duration `yaml:"offer_window"`
	StatusPollInterval    time.Duration `yaml:"status_poll_interval"`
	OperatorPagerNumbers  []string      `yaml:"operator_pager_numbers"`
	PageOnEscalation      bool          `yaml:"page_operators_on_escalation"`
}

func loadDispatchConfig() *DispatchConfig {
	return &DispatchConfig{
		SearchRadiusStepKM:    getEnvAsFloat64("DISPATCH_SEARCH_RADIUS_STEP_KM", 5),
		SearchRadiusMaxKM:     getEnvAsFloat64("DISPATCH_SEARCH_RADIUS_MAX_KM", 50),
		HospitalRadiusKM:      getEnvAsFloat64("DISPATCH_HOSPITAL_RADIUS_KM", 50),
		MaxCandidates:         getEnvAsInt("DISPATCH_MAX_CANDIDATES", 10),
		OfferWindow:           getEnvAsDuration("DISPATCH_OFFER_WINDOW", 30*time.Second),
		StatusPollInterval:    getEnvAsDuration("DISPATCH_STATUS_POLL_INTERVAL", 2*time.Second),
		OperatorPagerNumbers:  getEnvAsSlice("DISPATCH_OPERATOR_PAGER_NUMBERS", []string{}),
		PageOnEscalation:      getEnvAsBool("DISPATCH_PAGE_OPERATORS_ON_ESCALATION", true),
	}
}
