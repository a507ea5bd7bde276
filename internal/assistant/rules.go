package assistant

import (
	_ "embed"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRules []byte

// Rule is one row of the decision table. A rule answers with Reply, or with
// a uniform draw from Replies when Reply is empty.
type Rule struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
	Prefixes []string `yaml:"prefixes"`
	Reply    string   `yaml:"reply"`
	Replies  []string `yaml:"replies"`
	// From names a question rule whose Replies fill the {{tip}} placeholder.
	From string `yaml:"from"`
}

// TemplateRule matches template requests and picks a kind by sub-keyword.
type TemplateRule struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
	Kinds    []Rule   `yaml:"kinds"`
	Menu     string   `yaml:"menu"`
}

// Rules is the complete, immutable configuration of a Matcher.
type Rules struct {
	QuestionMarkers []string     `yaml:"question_markers"`
	Topics          []Rule       `yaml:"topics"`
	Greeting        Rule         `yaml:"greeting"`
	Gratitude       Rule         `yaml:"gratitude"`
	Questions       []Rule       `yaml:"questions"`
	Templates       TemplateRule `yaml:"templates"`
	Help            Rule         `yaml:"help"`
	Context         []Rule       `yaml:"context"`
	Fallbacks       []string     `yaml:"fallbacks"`
}

// DefaultRules returns the embedded rule set.
func DefaultRules() *Rules {
	r, err := parseRules(defaultRules)
	if err != nil {
		panic(fmt.Sprintf("assistant: embedded rules: %v", err))
	}
	return r
}

// LoadRules decodes a YAML rule set.
func LoadRules(r io.Reader) (*Rules, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read rules")
	}
	return parseRules(data)
}

// LoadRulesFile reads a YAML rule set from path.
func LoadRulesFile(path string) (*Rules, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open rules")
	}
	defer f.Close()
	return LoadRules(f)
}

func parseRules(data []byte) (*Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, errors.Wrap(err, "decode rules")
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// Validate checks that every rule can produce a reply.
func (r *Rules) Validate() error {
	if len(r.Fallbacks) == 0 {
		return errors.New("rules: at least one fallback reply is required")
	}
	check := func(section string, rule Rule) error {
		if rule.Reply == "" && len(rule.Replies) == 0 {
			return errors.Errorf("rules: %s %q has no reply", section, rule.Name)
		}
		if rule.From != "" {
			if _, ok := r.question(rule.From); !ok {
				return errors.Errorf("rules: %s %q draws from unknown rule %q", section, rule.Name, rule.From)
			}
		}
		return nil
	}
	for _, t := range r.Topics {
		if err := check("topic", t); err != nil {
			return err
		}
	}
	for _, q := range r.Questions {
		if err := check("question", q); err != nil {
			return err
		}
	}
	for _, k := range r.Templates.Kinds {
		if err := check("template", k); err != nil {
			return err
		}
	}
	for _, c := range r.Context {
		if err := check("context", c); err != nil {
			return err
		}
	}
	for _, single := range []Rule{r.Greeting, r.Gratitude, r.Help} {
		if len(single.Keywords)+len(single.Prefixes) == 0 {
			continue
		}
		if err := check("rule", single); err != nil {
			return err
		}
	}
	return nil
}

func (r *Rules) question(name string) (Rule, bool) {
	for _, q := range r.Questions {
		if q.Name == name {
			return q, true
		}
	}
	return Rule{}, false
}
