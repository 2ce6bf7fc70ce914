// Package plan loads declarative seed plans for remit ledgers.
//
// A plan is a YAML document describing the desired starting point for
// one owner: a split configuration, savings goals, bills, and insurance
// policies. Plans are validated against an embedded CUE schema before
// anything is written, then applied through the normal mutation
// protocol so every seeded record is audited and replay-protected.
package plan

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueyaml "cuelang.org/go/encoding/yaml"
	"gopkg.in/yaml.v3"

	"github.com/tsavo-labs/remit/internal/core"
)

//go:embed schema.cue
var schemaSource []byte

// Plan is a validated seed plan for a single owner.
type Plan struct {
	Owner    core.Principal `yaml:"owner"`
	Split    *SplitSpec     `yaml:"split"`
	Goals    []GoalSpec     `yaml:"goals"`
	Bills    []BillSpec     `yaml:"bills"`
	Policies []PolicySpec   `yaml:"policies"`
}

// SplitSpec is the remittance split configuration section of a plan.
type SplitSpec struct {
	Spending  uint32 `yaml:"spending"`
	Savings   uint32 `yaml:"savings"`
	Bills     uint32 `yaml:"bills"`
	Insurance uint32 `yaml:"insurance"`
}

// GoalSpec describes one savings goal to create.
type GoalSpec struct {
	Name         string `yaml:"name"`
	TargetAmount int64  `yaml:"target_amount"`
	TargetDate   int64  `yaml:"target_date"`
}

// BillSpec describes one bill to create.
type BillSpec struct {
	Name          string `yaml:"name"`
	Amount        int64  `yaml:"amount"`
	DueDate       int64  `yaml:"due_date"`
	Recurring     bool   `yaml:"recurring"`
	FrequencyDays int64  `yaml:"frequency_days"`
}

// PolicySpec describes one insurance policy to create.
type PolicySpec struct {
	Name           string `yaml:"name"`
	CoverageType   string `yaml:"coverage_type"`
	MonthlyPremium int64  `yaml:"monthly_premium"`
	CoverageAmount int64  `yaml:"coverage_amount"`
}

// Load reads, validates, and decodes a plan file.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plan: %w", err)
	}
	return Parse(path, data)
}

// Parse validates plan source against the embedded schema and decodes it.
// The filename is used only for error positions.
func Parse(filename string, data []byte) (*Plan, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileBytes(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compiling plan schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Plan"))
	if err := def.Err(); err != nil {
		return nil, fmt.Errorf("resolving plan schema: %w", err)
	}

	file, err := cueyaml.Extract(filename, data)
	if err != nil {
		return nil, fmt.Errorf("parsing plan: %w", err)
	}
	doc := ctx.BuildFile(file)
	if err := doc.Err(); err != nil {
		return nil, fmt.Errorf("parsing plan: %w", err)
	}

	unified := def.Unify(doc)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("invalid plan: %w", err)
	}

	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decoding plan: %w", err)
	}
	return &p, nil
}
