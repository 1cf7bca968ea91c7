// Package output renders evaluation reports in various formats (pretty,
// plain, json, yaml, etc.).
//
// The package uses a registry pattern so formatters can be selected by name
// at runtime.
//
// Basic usage:
//
//	formatter, err := output.Get("pretty")
//	if err != nil {
//	    return err
//	}
//	var buf bytes.Buffer
//	if err := formatter.Format(&buf, report); err != nil {
//	    return err
//	}
//	fmt.Print(buf.String())
package output

import (
	"bytes"
	"fmt"
	"sort"
	"sync"

	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/types"
)

// Formatter is the interface that all output formatters implement.
// Formatters render results in the order given and never recompute a ratio.
type Formatter interface {
	// Format writes the rendered report to the buffer.
	Format(w *bytes.Buffer, r *types.Report) error
}

// FormatterFactory creates a new Formatter instance.
type FormatterFactory func() Formatter

// Registry manages formatter registration and lookup.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewRegistry creates an empty formatter registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]FormatterFactory)}
}

// Register adds a formatter factory, replacing any with the same name.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new formatter instance by name.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown formatter: %s", name)
	}
	return factory(), nil
}

// Available returns the sorted names of all registered formatters.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global formatter registry.
var DefaultRegistry = NewRegistry()

// Register adds a formatter factory to the default registry.
func Register(name string, factory FormatterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a new formatter instance from the default registry.
func Get(name string) (Formatter, error) {
	return DefaultRegistry.Get(name)
}

// Available returns all formatter names from the default registry.
func Available() []string {
	return DefaultRegistry.Available()
}

// Row is one display-ready result line.
type Row struct {
	Resource   types.Resource `json:"resource" yaml:"resource"`
	Label      string         `json:"label" yaml:"label"`
	Actual     float64        `json:"actual" yaml:"actual"`
	Required   float64        `json:"required" yaml:"required"`
	Ratio      float64        `json:"ratio" yaml:"ratio"`
	Percent    string         `json:"percent" yaml:"percent"`
	Sufficient bool           `json:"sufficient" yaml:"sufficient"`

	ActualText   string `json:"-" yaml:"-"`
	RequiredText string `json:"-" yaml:"-"`
	Mark         string `json:"-" yaml:"-"`
}

// Rows converts the report's results to rows, preserving ranking order.
func Rows(r *types.Report) []Row {
	rows := make([]Row, len(r.Results))
	for i, res := range r.Results {
		rows[i] = Row{
			Resource:     res.Resource,
			Label:        res.Resource.Label(),
			Actual:       res.Actual,
			Required:     res.Required,
			Ratio:        res.Ratio,
			Percent:      FormatPercent(res.Ratio),
			Sufficient:   res.Sufficient(),
			ActualText:   FormatValue(res.Actual),
			RequiredText: FormatValue(res.Required),
			Mark:         Mark(res.Sufficient()),
		}
	}
	return rows
}

// Summary is the headline of a report.
type Summary struct {
	Cells        int64          `json:"cells" yaml:"cells"`
	Constraining types.Resource `json:"constraining,omitempty" yaml:"constraining,omitempty"`
	Insufficient int            `json:"insufficient" yaml:"insufficient"`
	Total        int            `json:"total" yaml:"total"`
}

// Summarize returns the headline of a report.
func Summarize(r *types.Report) Summary {
	s := Summary{
		Cells:        r.Profile.Cells,
		Insufficient: r.Insufficient(),
		Total:        len(r.Results),
	}
	if c := r.Constraining(); c != nil {
		s.Constraining = c.Resource
	}
	return s
}

// Title returns the heading printed above a report.
func Title(r *types.Report) string {
	return fmt.Sprintf("Checking the various possible hardware bottlenecks for a simulation with %s cells",
		types.FormatCells(r.Profile.Cells))
}
