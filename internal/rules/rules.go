// Package rules implements the rule catalogue (C1): parsing, classifying,
// and querying the declarative collection rules that drive both the file
// and memory collectors.
package rules

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/medioxor/yoink/internal/platform"
	"github.com/medioxor/yoink/internal/rules/embedded"
	"github.com/medioxor/yoink/internal/yerrors"
)

// Kind is the rule_type discriminant of a Rule.
type Kind string

// The three rule kinds a document may declare.
const (
	KindFile    Kind = "file"
	KindMemory  Kind = "memory"
	KindCommand Kind = "command"
)

// Header is the set of fields common to every rule variant.
type Header struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Platform    string `yaml:"platform"`
	RuleType    Kind   `yaml:"rule_type"`
}

// Rule is the tagged-union interface implemented by FileRule, MemoryRule,
// and CommandRule. Modelled as an interface with a Kind() discriminant and
// variant-specific structs, never via inheritance (see spec.md design
// notes).
type Rule interface {
	Kind() Kind
	Head() Header
}

// FileRule declares a set of path patterns to search for and collect.
type FileRule struct {
	Header         `yaml:",inline"`
	Paths          []string `yaml:"paths"`
	RecursionDepth uint     `yaml:"recursion_depth"`
}

// Kind implements Rule.
func (r FileRule) Kind() Kind { return KindFile }

// Head implements Rule.
func (r FileRule) Head() Header { return r.Header }

// MemoryRule declares process-matching criteria for the memory collector.
type MemoryRule struct {
	Header        `yaml:",inline"`
	ProcessNames  []string `yaml:"process_names"`
	PIDs          []uint32 `yaml:"pids"`
}

// Kind implements Rule.
func (r MemoryRule) Kind() Kind { return KindMemory }

// Head implements Rule.
func (r MemoryRule) Head() Header { return r.Header }

// CommandRule declares an external binary invocation. The execution arm is
// an external collaborator (spec.md §1/§6); this type exists only so the
// catalogue can parse, classify, and query command rule documents.
type CommandRule struct {
	Header    `yaml:",inline"`
	Binary    string `yaml:"binary"`
	Arguments string `yaml:"arguments"`
}

// Kind implements Rule.
func (r CommandRule) Kind() Kind { return KindCommand }

// Head implements Rule.
func (r CommandRule) Head() Header { return r.Header }

// rawDocument is the loose shape every rule document is decoded into before
// being shape-matched against the three variants.
type rawDocument struct {
	Header         `yaml:",inline"`
	Paths          []string `yaml:"paths"`
	RecursionDepth *uint    `yaml:"recursion_depth"`
	ProcessNames   []string `yaml:"process_names"`
	PIDs           []uint32 `yaml:"pids"`
	Binary         *string  `yaml:"binary"`
	Arguments      *string  `yaml:"arguments"`
}

// ParseDocument decodes one YAML rule document and classifies it by trying
// the three variants in the fixed order {memory, file, command}. A variant
// wins as soon as any one of its own fields is present: process_names or
// pids for memory, paths for file (recursion_depth defaults to 0 when
// absent), binary for command. The rule_type field is not checked against
// the chosen variant.
func ParseDocument(yamlBytes []byte) (Rule, error) {
	var doc rawDocument
	if err := yaml.Unmarshal(yamlBytes, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", yerrors.ErrRuleParseError, err)
	}
	if doc.Name == "" || doc.Platform == "" {
		return nil, fmt.Errorf("%w: missing name or platform", yerrors.ErrRuleParseError)
	}

	if doc.ProcessNames != nil || doc.PIDs != nil {
		return MemoryRule{
			Header:       doc.Header,
			ProcessNames: doc.ProcessNames,
			PIDs:         doc.PIDs,
		}, nil
	}
	if doc.Paths != nil {
		depth := uint(0)
		if doc.RecursionDepth != nil {
			depth = *doc.RecursionDepth
		}
		return FileRule{
			Header:         doc.Header,
			Paths:          doc.Paths,
			RecursionDepth: depth,
		}, nil
	}
	if doc.Binary != nil {
		arguments := ""
		if doc.Arguments != nil {
			arguments = *doc.Arguments
		}
		return CommandRule{
			Header:    doc.Header,
			Binary:    *doc.Binary,
			Arguments: arguments,
		}, nil
	}

	return nil, fmt.Errorf("%w: document %q matches no known rule shape", yerrors.ErrRuleParseError, doc.Name)
}

// ParseFile reads and parses a single rule document from disk.
func ParseFile(path string) (Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", yerrors.ErrRuleParseError, err)
	}
	return ParseDocument(data)
}

// Catalogue is the union of embedded and user-supplied rule documents.
// Rules for other platforms are dropped while loading and rejected by Add,
// so every rule it holds is for the current platform.
type Catalogue struct {
	rules []Rule
}

// NewCatalogue builds a catalogue from the embedded rule bundle plus,
// optionally, every *.yaml/*.yml document in userDir.
func NewCatalogue(userDir string) (*Catalogue, error) {
	c := &Catalogue{}

	names, err := embedded.Names()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", yerrors.ErrRuleParseError, err)
	}
	for _, name := range names {
		data, err := embedded.Read(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", yerrors.ErrRuleParseError, err)
		}
		rule, err := ParseDocument(data)
		if err != nil {
			return nil, err
		}
		// The embedded bundle carries rules for every supported platform;
		// silently drop the ones that don't apply here rather than reject
		// construction, matching the glossary's "after platform filtering".
		if rule.Head().Platform != platform.Current() {
			continue
		}
		_ = c.insert(rule)
	}

	if userDir != "" {
		c.mergeDir(userDir)
	}

	return c, nil
}

// mergeDir scans a directory for *.yaml/*.yml rule documents and merges
// them into the catalogue. Duplicate names and cross-platform rules are
// dropped, per spec.md §6's --rule-dir contract.
func (c *Catalogue) mergeDir(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		rule, err := ParseFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}
		if rule.Head().Platform != platform.Current() {
			continue
		}
		_ = c.insert(rule)
	}
}

// insert appends a rule after checking only the name-uniqueness invariant,
// used by the bulk-load paths (embedded bundle, --rule-dir merge) that
// silently drop rejects rather than fail the whole catalogue load.
func (c *Catalogue) insert(rule Rule) error {
	head := rule.Head()
	for _, existing := range c.rules {
		if existing.Kind() == rule.Kind() && existing.Head().Name == head.Name {
			return fmt.Errorf("%w: %q", yerrors.ErrDuplicateRule, head.Name)
		}
	}
	c.rules = append(c.rules, rule)
	return nil
}

// Add appends a single rule to an already-constructed catalogue, enforcing
// the name-uniqueness and platform invariants from spec.md §3 as hard
// errors. This is the path used when an operator explicitly supplies one
// more rule after construction (the collector façade's AddRuleFromFile).
func (c *Catalogue) Add(rule Rule) error {
	head := rule.Head()
	if head.Platform != platform.Current() {
		return fmt.Errorf("%w: rule %q declares platform %q", yerrors.ErrWrongPlatformRule, head.Name, head.Platform)
	}
	return c.insert(rule)
}

// All returns every rule in the catalogue.
func (c *Catalogue) All() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

// ByPlatform returns the rules whose platform matches p.
func (c *Catalogue) ByPlatform(p string) []Rule {
	var out []Rule
	for _, r := range c.rules {
		if r.Head().Platform == p {
			out = append(out, r)
		}
	}
	return out
}

// ByType returns the rules whose rule_type matches k.
func (c *Catalogue) ByType(k Kind) []Rule {
	var out []Rule
	for _, r := range c.rules {
		if r.Kind() == k {
			out = append(out, r)
		}
	}
	return out
}

// ByPlatformAndType returns the conjunction of ByPlatform and ByType.
func (c *Catalogue) ByPlatformAndType(p string, k Kind) []Rule {
	var out []Rule
	for _, r := range c.rules {
		if r.Head().Platform == p && r.Kind() == k {
			out = append(out, r)
		}
	}
	return out
}

// ByName returns the first rule matching name, regardless of kind.
func (c *Catalogue) ByName(name string) (Rule, bool) {
	for _, r := range c.rules {
		if r.Head().Name == name {
			return r, true
		}
	}
	return nil, false
}
