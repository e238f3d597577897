package nomenclature

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/scrapscan-backend/pkg/enums"
)

// Rule is one barcode pattern. Pattern syntax: literal digits, '.' for any digit and a
// single value section {N...D...} holding integer (N) then decimal (D) digits.
type Rule struct {
	Name     string
	Type     enums.BarcodeRuleType
	Pattern  string
	Sequence int
}

type compiledRule struct {
	Rule
	// mask holds one byte per pattern position: a digit literal, '.' or 'v' for value digits.
	mask       []byte
	valueStart int
	intDigits  int
	decDigits  int
}

func compile(rule Rule) (compiledRule, error) {
	if !rule.Type.IsValid() {
		return compiledRule{}, fmt.Errorf("rule %q: invalid type %q", rule.Name, rule.Type)
	}
	pattern := strings.TrimSpace(rule.Pattern)
	if pattern == "" {
		return compiledRule{}, fmt.Errorf("rule %q: empty pattern", rule.Name)
	}

	out := compiledRule{Rule: rule, valueStart: -1}
	inValue := false
	sawDecimal := false
	for i := 0; i < len(pattern); i++ {
		ch := pattern[i]
		switch {
		case ch == '{':
			if inValue || out.valueStart >= 0 {
				return compiledRule{}, fmt.Errorf("rule %q: only one value section is allowed", rule.Name)
			}
			inValue = true
			out.valueStart = len(out.mask)
		case ch == '}':
			if !inValue {
				return compiledRule{}, fmt.Errorf("rule %q: unbalanced '}'", rule.Name)
			}
			inValue = false
		case inValue && ch == 'N':
			if sawDecimal {
				return compiledRule{}, fmt.Errorf("rule %q: integer digits must precede decimals", rule.Name)
			}
			out.intDigits++
			out.mask = append(out.mask, 'v')
		case inValue && ch == 'D':
			sawDecimal = true
			out.decDigits++
			out.mask = append(out.mask, 'v')
		case inValue:
			return compiledRule{}, fmt.Errorf("rule %q: unexpected %q in value section", rule.Name, ch)
		case ch == '.' || (ch >= '0' && ch <= '9'):
			out.mask = append(out.mask, ch)
		default:
			return compiledRule{}, fmt.Errorf("rule %q: unexpected %q in pattern", rule.Name, ch)
		}
	}
	if inValue {
		return compiledRule{}, fmt.Errorf("rule %q: unterminated value section", rule.Name)
	}
	if out.valueStart >= 0 && out.intDigits+out.decDigits == 0 {
		return compiledRule{}, fmt.Errorf("rule %q: empty value section", rule.Name)
	}
	return out, nil
}

// match reports whether code fits the rule. A code may carry one extra trailing check digit.
func (r compiledRule) match(code string) bool {
	if len(code) != len(r.mask) && len(code) != len(r.mask)+1 {
		return false
	}
	if !isDigits(code) {
		return false
	}
	for i, m := range r.mask {
		if m >= '0' && m <= '9' && code[i] != m {
			return false
		}
	}
	return true
}

func (r compiledRule) parse(code string) Parsed {
	parsed := Parsed{
		Type:     r.Type,
		Code:     code,
		BaseCode: code,
		Value:    decimal.Zero,
		RuleName: r.Name,
	}
	if r.valueStart < 0 {
		return parsed
	}

	end := r.valueStart + r.intDigits + r.decDigits
	intPart := code[r.valueStart : r.valueStart+r.intDigits]
	decPart := code[r.valueStart+r.intDigits : end]
	if intPart == "" {
		intPart = "0"
	}
	raw := intPart
	if decPart != "" {
		raw += "." + decPart
	}
	if value, err := decimal.NewFromString(raw); err == nil {
		parsed.Value = value
	}

	base := []byte(code)
	for i := r.valueStart; i < end; i++ {
		base[i] = '0'
	}
	if len(code) == len(r.mask)+1 {
		base[len(base)-1] = checkDigit(string(base[:len(base)-1]))
	}
	parsed.BaseCode = string(base)
	return parsed
}

// checkDigit computes the GS1 mod-10 check digit (EAN-8/EAN-13/UPC) for body.
func checkDigit(body string) byte {
	sum := 0
	weight := 3
	for i := len(body) - 1; i >= 0; i-- {
		sum += int(body[i]-'0') * weight
		if weight == 3 {
			weight = 1
		} else {
			weight = 3
		}
	}
	return byte('0' + (10-sum%10)%10)
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
