package collect

import (
	"context"
	"fmt"
	"time"

	"github.com/medioxor/yoink/internal/logging"
	"github.com/medioxor/yoink/internal/rawfs"
	"github.com/medioxor/yoink/internal/rules"
	"github.com/medioxor/yoink/internal/yerrors"
)

// Collector is the façade that ties the rule catalogue and the file and
// memory collectors together into the operations the command line exposes:
// look up rules by name, run them, and hand back what they found. Archiving
// that result is done separately with internal/archiver.
type Collector struct {
	catalogue   *rules.Catalogue
	file        *FileCollector
	memory      *MemoryCollector
	artefacts   []string
	memoryDumps []string
	log         *logging.Logger
}

// New builds a Collector whose catalogue is the embedded rule bundle merged
// with any rules found in userRuleDir (empty to skip).
func New(userRuleDir string) (*Collector, error) {
	catalogue, err := rules.NewCatalogue(userRuleDir)
	if err != nil {
		return nil, err
	}
	return &Collector{
		catalogue: catalogue,
		file:      NewFileCollector(rawfs.New()),
		memory:    NewMemoryCollector(""),
		log:       logging.New("collect"),
	}, nil
}

// Rules returns the effective rule catalogue.
func (c *Collector) Rules() []rules.Rule {
	return c.catalogue.All()
}

// AddRuleFromFile parses one rule document and adds it to the catalogue.
func (c *Collector) AddRuleFromFile(path string) error {
	rule, err := rules.ParseFile(path)
	if err != nil {
		return err
	}
	return c.catalogue.Add(rule)
}

// Artefacts returns every file-backed artefact path collected so far.
func (c *Collector) Artefacts() []string {
	out := make([]string, len(c.artefacts))
	copy(out, c.artefacts)
	return out
}

// MemoryDumps returns every memory dump file path collected so far.
func (c *Collector) MemoryDumps() []string {
	out := make([]string, len(c.memoryDumps))
	copy(out, c.memoryDumps)
	return out
}

// CollectByName runs the named rule and appends whatever it finds to the
// running artefact list.
func (c *Collector) CollectByName(ctx context.Context, name string) error {
	rule, ok := c.catalogue.ByName(name)
	if !ok {
		return fmt.Errorf("%w: %q", yerrors.ErrRuleNotFound, name)
	}
	return c.runRule(ctx, rule)
}

// CollectAll runs every rule in the catalogue whose platform matches the
// one this tool is running on, collecting diagnostics for failed rules
// instead of aborting the whole run.
func (c *Collector) CollectAll(ctx context.Context) []error {
	var errs []error
	for _, rule := range c.catalogue.All() {
		if err := c.runRule(ctx, rule); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func (c *Collector) runRule(ctx context.Context, rule rules.Rule) error {
	switch r := rule.(type) {
	case rules.FileRule:
		found := c.file.CollectByRule(ctx, r)
		c.log.Infof("rule %q matched %d artefact(s)", r.Name, len(found))
		c.artefacts = append(c.artefacts, found...)
		return nil
	case rules.MemoryRule:
		found := c.memory.CollectByRule(r, func() int64 { return time.Now().UnixMilli() })
		c.log.Infof("rule %q dumped %d process(es)", r.Name, len(found))
		c.memoryDumps = append(c.memoryDumps, found...)
		return nil
	case rules.CommandRule:
		return fmt.Errorf("%w: command rule %q requires an external runner", yerrors.ErrWrongRuleKind, r.Name)
	default:
		return fmt.Errorf("%w: unknown rule kind", yerrors.ErrWrongRuleKind)
	}
}

// Close releases resources held by the memory collector (temp dump files).
func (c *Collector) Close() error {
	return c.memory.Close()
}
