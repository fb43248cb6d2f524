package guard

import (
	"strings"
)

// Decision is the outcome of one content check. Message is only set when
// the text was blocked and is surfaced verbatim to the caller.
type Decision struct {
	Allowed bool
	Message string
}

// Filter gates text entering and leaving the workflow.
type Filter interface {
	Check(text string) Decision
}

// AllowAll disables filtering.
type AllowAll struct{}

func (AllowAll) Check(string) Decision {
	return Decision{Allowed: true}
}

const DefaultBlockedMessage = "Sorry, this request touches a restricted topic and cannot be processed. Please rephrase your question."

// KeywordFilter blocks text that contains a blocked phrase or whose
// blocked-keyword density crosses the threshold. Multi-word keywords match
// as substrings; single words match whole tokens so that e.g. "assess" does
// not trip on "ass".
type KeywordFilter struct {
	phrases   []string
	words     map[string]struct{}
	threshold float64
	message   string
}

func NewKeywordFilter(keywords []string, threshold float64, message string) *KeywordFilter {
	if message == "" {
		message = DefaultBlockedMessage
	}
	f := &KeywordFilter{
		words:     make(map[string]struct{}),
		threshold: threshold,
		message:   message,
	}
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		if strings.ContainsRune(k, ' ') {
			f.phrases = append(f.phrases, k)
		} else {
			f.words[k] = struct{}{}
		}
	}
	return f
}

func (f *KeywordFilter) Check(text string) Decision {
	lower := strings.ToLower(text)

	for _, phrase := range f.phrases {
		if strings.Contains(lower, phrase) {
			return Decision{Message: f.message}
		}
	}

	tokens := strings.FieldsFunc(lower, func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	if len(tokens) == 0 {
		return Decision{Allowed: true}
	}

	blocked := 0
	for _, tok := range tokens {
		if _, ok := f.words[tok]; ok {
			blocked++
		}
	}
	if float64(blocked)/float64(len(tokens)) >= f.threshold && blocked > 0 {
		return Decision{Message: f.message}
	}
	return Decision{Allowed: true}
}
