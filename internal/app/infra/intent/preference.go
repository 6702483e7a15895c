package intent

import (
	"fmt"
	"strings"
	"time"

	"fulfilment/internal/app/domains/entity/etsession"
)

var (
	acceptIntents = map[string]bool{
		"accept_substitution": true,
		"substitution_accept": true,
		"confirm":             true,
	}
	declineIntents = map[string]bool{
		"decline_substitution": true,
		"reject_substitution":  true,
		"no_substitute":        true,
	}
	replacementEntities = []string{"product_code", "replacement_sku"}
)

// ToPreference 把解析结果转换为客户表态，无法识别时返回 nil
func ToPreference(r *Result, text string, now time.Time) *etsession.Preference {
	if r == nil {
		return nil
	}
	name := strings.ToLower(strings.TrimSpace(r.Intent.Name))
	switch {
	case acceptIntents[name]:
		return &etsession.Preference{
			Kind:            etsession.PreferenceAccept,
			ReplacementCode: replacementCode(r.Entities),
			LineID:          etsession.LineIDOf(r.Entities),
			Text:            text,
			At:              now,
		}
	case declineIntents[name]:
		return &etsession.Preference{
			Kind:   etsession.PreferenceDecline,
			LineID: etsession.LineIDOf(r.Entities),
			Text:   text,
			At:     now,
		}
	default:
		return nil
	}
}

// LastPreference 多条文本按顺序解析，后出现的表态覆盖前面的
func LastPreference(results []Result, texts []string, now time.Time) *etsession.Preference {
	var pref *etsession.Preference
	for i := range results {
		text := ""
		if i < len(texts) {
			text = texts[i]
		}
		if p := ToPreference(&results[i], text, now); p != nil {
			pref = p
		}
	}
	return pref
}

func replacementCode(entities map[string]interface{}) string {
	for _, key := range replacementEntities {
		switch v := entities[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return fmt.Sprintf("%.0f", v)
		}
	}
	return ""
}
