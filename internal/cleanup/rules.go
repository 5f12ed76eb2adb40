package cleanup

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/signal-desk/backend/internal/storage/models"
	"github.com/signal-desk/backend/pkg/logger"
)

// Rule is one independent classification pass. Rules only ever add to the
// candidate set; they are evaluated in order but never short-circuit each
// other.
type Rule struct {
	Name   string
	Reason Reason
	Types  []models.SignalType
	Match  func(models.Signal) bool
}

// RuleConfig holds the fixed business lists the default ruleset is built
// from. Passed in rather than hardcoded so tests can substitute alternates.
type RuleConfig struct {
	TrustedSource         string
	AcademicTerms         []string
	GarbageTitleFragments []string
	UnknownPhaseValues    []string
}

func DefaultRuleConfig(trustedSource string) RuleConfig {
	return RuleConfig{
		TrustedSource: trustedSource,
		AcademicTerms: []string{
			"university", "universit", "college", "school of medicine",
			"hospital", "health system", "medical center", "medical centre", "clinic ",
			"nih", "national institutes", "national cancer institute", "fda", "cdc",
			"department of", "ministry of", "veterans affairs", "va medical",
			"public health", "government", "county of", "city of",
			"research institute", "research center", "research centre",
			"research network", "research consortium", "academy of", "association of",
			"society of", "foundation",
		},
		GarbageTitleFragments: []string{
			"cookie policy",
			"privacy policy",
			"terms of use",
			"sign in to continue",
			"enable javascript",
			"page not found",
			"access denied",
			"search results",
		},
		UnknownPhaseValues: []string{"?", "NA", "N/A"},
	}
}

// DefaultRules builds the ordered classification table from the configured
// lists.
func DefaultRules(cfg RuleConfig) []Rule {
	academicPattern := compileTermPattern(cfg.AcademicTerms)
	unknownPhases := make(map[string]struct{}, len(cfg.UnknownPhaseValues))
	for _, v := range cfg.UnknownPhaseValues {
		unknownPhases[v] = struct{}{}
	}

	return []Rule{
		{
			Name:   "academic-government",
			Reason: ReasonAcademicGovernment,
			Types:  models.AllTypes(),
			Match: func(s models.Signal) bool {
				name := s.Detail.EndClientName()
				return name != "" && academicPattern.MatchString(name)
			},
		},
		{
			Name:   "invalid-phase",
			Reason: ReasonInvalidPhase,
			Types:  []models.SignalType{models.TypeTrialPhaseChange, models.TypeTrialNewFiling},
			Match: func(s models.Signal) bool {
				if s.Detail.String("phase_from") == "Pre-Clinical" {
					return true
				}
				_, unknown := unknownPhases[strings.TrimSpace(s.Detail.String("phase_to"))]
				return unknown
			},
		},
		{
			Name:   "untrusted-source",
			Reason: ReasonUntrustedSource,
			Types:  []models.SignalType{models.TypeCompetitorJob},
			Match: func(s models.Signal) bool {
				return !strings.EqualFold(s.Detail.String("source"), cfg.TrustedSource) &&
					!strings.EqualFold(s.Detail.String("job_board"), cfg.TrustedSource)
			},
		},
		{
			Name:   "untrusted-ats",
			Reason: ReasonUntrustedATS,
			Types:  []models.SignalType{models.TypeCompetitorJobATS},
			Match: func(s models.Signal) bool {
				ats := s.Detail.String("ats_source")
				return ats != "" && !strings.EqualFold(ats, cfg.TrustedSource)
			},
		},
		{
			// Legacy scrape path produced unusable rows across the board.
			Name:   "distrusted-origin",
			Reason: ReasonDistrustedOrigin,
			Types:  []models.SignalType{models.TypeCompetitorJobScraped},
			Match: func(models.Signal) bool {
				return true
			},
		},
		{
			Name:   "garbage-title",
			Reason: ReasonGarbageTitle,
			Types:  models.JobTypes(),
			Match: func(s models.Signal) bool {
				title := strings.ToLower(s.Detail.String("job_title"))
				if title == "" {
					return false
				}
				for _, fragment := range cfg.GarbageTitleFragments {
					if strings.Contains(title, fragment) {
						return true
					}
				}
				return false
			},
		},
	}
}

func compileTermPattern(terms []string) *regexp.Regexp {
	escaped := make([]string, len(terms))
	for i, t := range terms {
		escaped[i] = regexp.QuoteMeta(t)
	}
	return regexp.MustCompile(`(?i)(` + strings.Join(escaped, "|") + `)`)
}

// Engine runs each rule as an independent pass over the fetched signals.
type Engine struct {
	rules []Rule
}

func NewEngine(rules []Rule) *Engine {
	return &Engine{rules: rules}
}

func (e *Engine) Evaluate(signals []models.Signal, set *CandidateSet) {
	for _, rule := range e.rules {
		applicable := make(map[models.SignalType]struct{}, len(rule.Types))
		for _, t := range rule.Types {
			applicable[t] = struct{}{}
		}

		matched := 0
		for _, s := range signals {
			if _, ok := applicable[s.Type]; !ok {
				continue
			}
			if rule.Match(s) {
				set.Add(s.ID, rule.Reason)
				matched++
			}
		}

		logger.Info("Classification rule evaluated",
			zap.String("rule", rule.Name),
			zap.String("reason", string(rule.Reason)),
			zap.Int("matched", matched),
		)
	}
}
