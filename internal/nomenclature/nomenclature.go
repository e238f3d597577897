package nomenclature

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/scrapscan-backend/pkg/enums"
)

// Parsed is the outcome of reading a barcode through a nomenclature.
type Parsed struct {
	Type     enums.BarcodeRuleType
	Code     string
	BaseCode string
	Value    decimal.Decimal
	RuleName string
}

// IsWeight reports whether the barcode embeds a weight.
func (p Parsed) IsWeight() bool {
	return p.Type == enums.BarcodeRuleTypeWeight
}

// Parser reads barcodes. ok is false when the code cannot be parsed at all.
type Parser interface {
	Parse(code string) (Parsed, bool)
}

// Nomenclature is an ordered set of rules; the first matching rule wins.
type Nomenclature struct {
	rules []compiledRule
}

// New compiles the rules, ordering them by sequence then name.
func New(rules []Rule) (*Nomenclature, error) {
	compiled := make([]compiledRule, 0, len(rules))
	for _, rule := range rules {
		c, err := compile(rule)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, c)
	}
	sort.SliceStable(compiled, func(i, j int) bool {
		if compiled[i].Sequence != compiled[j].Sequence {
			return compiled[i].Sequence < compiled[j].Sequence
		}
		return compiled[i].Name < compiled[j].Name
	})
	return &Nomenclature{rules: compiled}, nil
}

// Parse returns the first matching rule's reading, or a unit reading of the raw code
// when no rule matches.
func (n *Nomenclature) Parse(code string) (Parsed, bool) {
	code = strings.TrimSpace(code)
	if n == nil || code == "" {
		return Parsed{}, false
	}
	for _, rule := range n.rules {
		if rule.match(code) {
			return rule.parse(code), true
		}
	}
	return Parsed{
		Type:     enums.BarcodeRuleTypeUnit,
		Code:     code,
		BaseCode: code,
		Value:    decimal.Zero,
	}, true
}

// Len returns the number of compiled rules.
func (n *Nomenclature) Len() int {
	if n == nil {
		return 0
	}
	return len(n.rules)
}
