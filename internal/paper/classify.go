package paper

import (
	"regexp"
	"strings"

	"litreview/internal/models"
)

type categoryRule struct {
	pattern *regexp.Regexp
	exclude string
	label   models.Category
}

// Rules are evaluated in order and the first match wins. Real titles hit
// several patterns, so the order is part of the contract.
var categoryRules = []categoryRule{
	{pattern: regexp.MustCompile(`intro|background|problem statement|research objective`), label: models.CategoryIntroduction},
	{pattern: regexp.MustCompile(`review|work`), label: models.CategoryLiterature},
	{pattern: regexp.MustCompile(`method|data|experiment|model|pipeline|evaluation|design|materials`), exclude: "result", label: models.CategoryMethodology},
	{pattern: regexp.MustCompile(`result|discussion|conclusion|summary|implication`), label: models.CategoryResults},
}

// ClassifySection maps a section title to its category.
func ClassifySection(title string) models.Category {
	t := strings.ToLower(title)
	for _, r := range categoryRules {
		if r.exclude != "" && strings.Contains(t, r.exclude) {
			continue
		}
		if r.pattern.MatchString(t) {
			return r.label
		}
	}
	return models.CategoryOthers
}
