package match

import (
	"fmt"
	"regexp"
	"strings"

	"attendmap/internal/domain"
)

// DefaultPatterns — шаблоны текста по умолчанию, переопределяются конфигом.
var DefaultPatterns = []string{
	`I will attend #FakeEventName(?:\s+from (?P<city>.*))?`,
	`Partecipero a #FakeEventName(?:\s+da (?P<city>.*))?`,
}

// Matcher применяет упорядоченный список шаблонов к нормализованному тексту.
// Совпадение ищется с начала строки, первый сработавший шаблон выигрывает.
type Matcher struct {
	patterns []*regexp.Regexp
}

// NewMatcher компилирует шаблоны. Каждый шаблон привязывается к началу
// строки и сравнивается без учёта регистра.
func NewMatcher(patterns []string) (*Matcher, error) {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		re, err := regexp.Compile(`(?i)^(?:` + pattern + `)`)
		if err != nil {
			return nil, fmt.Errorf("компиляция шаблона %q: %w", pattern, err)
		}
		compiled = append(compiled, re)
	}
	return &Matcher{patterns: compiled}, nil
}

// Match возвращает именованные группы первого сработавшего шаблона.
// Второй результат false означает, что не совпал ни один шаблон.
func (m *Matcher) Match(text string) (domain.MatchResult, bool) {
	text = Normalize(text)
	for _, re := range m.patterns {
		groups := re.FindStringSubmatch(text)
		if groups == nil {
			continue
		}
		var result domain.MatchResult
		for i, name := range re.SubexpNames() {
			if name == "city" && i < len(groups) {
				result.City = strings.TrimSpace(groups[i])
			}
		}
		return result, true
	}
	return domain.MatchResult{}, false
}
