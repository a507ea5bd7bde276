// Package assistant answers chat messages with a fixed, ordered decision
// table of keyword rules.
package assistant

import (
	"math/rand"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

const (
	// EchoLength is how many characters of the utterance the echo fallback repeats.
	EchoLength = 30

	echoPlaceholder = "{{echo}}"
	tipPlaceholder  = "{{tip}}"
)

// Rand is the source of the uniform draws among candidate replies.
type Rand interface {
	Intn(n int) int
}

// Result is a reply together with the rule that produced it.
type Result struct {
	Rule  string
	Reply string
}

// Matcher maps an utterance and its recent context to a reply.
type Matcher struct {
	rules *Rules

	mu  sync.Mutex
	rnd Rand
}

// NewMatcher returns a Matcher over rules (DefaultRules when nil). A nil rnd
// is seeded from the clock.
func NewMatcher(rules *Rules, rnd Rand) *Matcher {
	if rules == nil {
		rules = DefaultRules()
	}
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Matcher{rules: rules, rnd: rnd}
}

// Respond returns the reply text for utterance.
func (m *Matcher) Respond(utterance string, recent []string) string {
	return m.Match(utterance, recent).Reply
}

// Match evaluates the rules in order and returns the first that fires.
func (m *Matcher) Match(utterance string, recent []string) Result {
	r := m.rules
	text := strings.ToLower(utterance)
	question := containsAny(text, r.QuestionMarkers)

	if !question {
		for _, t := range r.Topics {
			if containsAny(text, t.Keywords) {
				return m.answer("topic:"+t.Name, t)
			}
		}
	}

	if hasAnyPrefix(text, r.Greeting.Prefixes) {
		return m.answer(r.Greeting.Name, r.Greeting)
	}
	if containsAny(text, r.Gratitude.Keywords) {
		return m.answer(r.Gratitude.Name, r.Gratitude)
	}

	if question {
		for _, q := range r.Questions {
			if containsAny(text, q.Keywords) {
				return m.answer("question:"+q.Name, q)
			}
		}
	}

	if containsAny(text, r.Templates.Keywords) {
		for _, k := range r.Templates.Kinds {
			if containsAny(text, k.Keywords) {
				return m.answer("template:"+k.Name, k)
			}
		}
		return Result{Rule: "template:menu", Reply: r.Templates.Menu}
	}

	if containsAny(text, r.Help.Keywords) {
		return m.answer(r.Help.Name, r.Help)
	}

	if len(recent) > 0 {
		joined := strings.ToLower(strings.Join(recent, " "))
		for _, c := range r.Context {
			if containsAny(joined, c.Keywords) {
				return m.answer("context:"+c.Name, c)
			}
		}
	}

	reply := m.pick(r.Fallbacks)
	if strings.Contains(reply, echoPlaceholder) {
		reply = strings.ReplaceAll(reply, echoPlaceholder, Echo(utterance))
	}
	return Result{Rule: "fallback", Reply: reply}
}

func (m *Matcher) answer(name string, rule Rule) Result {
	reply := rule.Reply
	if reply == "" {
		reply = m.pick(rule.Replies)
	}
	if rule.From != "" {
		src, _ := m.rules.question(rule.From)
		reply = strings.ReplaceAll(reply, tipPlaceholder, m.pick(src.Replies))
	}
	return Result{Rule: name, Reply: reply}
}

func (m *Matcher) pick(candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return candidates[m.rnd.Intn(len(candidates))]
}

// Echo returns the first EchoLength characters of s, marking a cut with "...".
func Echo(s string) string {
	if utf8.RuneCountInString(s) <= EchoLength {
		return s
	}
	return string([]rune(s)[:EchoLength]) + "..."
}

// ThinkingDelay is the artificial pause before a reply is shown.
func ThinkingDelay(utterance string) time.Duration {
	ms := 1000 + 20*utf8.RuneCountInString(utterance)
	if ms > 3000 {
		ms = 3000
	}
	return time.Duration(ms) * time.Millisecond
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if w != "" && strings.Contains(text, w) {
			return true
		}
	}
	return false
}

func hasAnyPrefix(text string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(text, p) {
			return true
		}
	}
	return false
}
