package validate

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"lorekeeper/internal/lore"
)

type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warning"
)

const (
	codeEmptyKeys        = "empty_keys"
	codeMissingSecondary = "missing_secondary"
	codeProbabilityRange = "probability_range"
	codeProbabilityUnset = "probability_unset"
	codeEmptyContent     = "empty_content"
	codeUnknownPosition  = "unknown_position"
	codeOverBudget       = "over_budget"
	codeMissingWorld     = "missing_world"
)

type Issue struct {
	Severity Severity
	Code     string
	Message  string
	World    string
	UID      int
}

type Report struct {
	Issues []Issue
}

func (r *Report) Errors() int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			n++
		}
	}
	return n
}

type WorldLoader interface {
	List(ctx context.Context) ([]string, error)
	Load(ctx context.Context, name string) (*lore.Collection, error)
}

type TokenCounter interface {
	Count(text string) int
}

type Options struct {
	// Worlds limits the check to these worlds; empty means every stored world.
	Worlds []string
	// Referenced are world names the configuration points at.
	Referenced []string
	// Budget, when positive, flags entries too large to ever activate.
	Budget  int
	Counter TokenCounter
}

func Run(ctx context.Context, loader WorldLoader, options Options) (*Report, error) {
	if loader == nil {
		return nil, fmt.Errorf("world loader is required")
	}

	stored, err := loader.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list worlds: %w", err)
	}

	issues := make([]Issue, 0)
	for _, name := range options.Referenced {
		if name != "" && !slices.Contains(stored, name) {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Code:     codeMissingWorld,
				Message:  fmt.Sprintf("referenced world does not exist: %s", name),
				World:    name,
				UID:      -1,
			})
		}
	}

	names := options.Worlds
	if len(names) == 0 {
		names = stored
	}
	for _, name := range names {
		c, err := loader.Load(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("load world %s: %w", name, err)
		}
		if c == nil {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Code:     codeMissingWorld,
				Message:  fmt.Sprintf("world does not exist: %s", name),
				World:    name,
				UID:      -1,
			})
			continue
		}
		issues = append(issues, Collection(name, c, options)...)
	}

	return &Report{Issues: issues}, nil
}

// Collection lints every entry of one world.
func Collection(world string, c *lore.Collection, options Options) []Issue {
	var issues []Issue
	for _, e := range c.Entries() {
		issues = append(issues, validateEntry(world, e, options)...)
	}
	return issues
}

func validateEntry(world string, e *lore.Entry, options Options) []Issue {
	if e.Disable {
		return nil
	}

	var issues []Issue
	add := func(severity Severity, code, format string, args ...any) {
		issues = append(issues, Issue{
			Severity: severity,
			Code:     code,
			Message:  fmt.Sprintf(format, args...),
			World:    world,
			UID:      e.UID,
		})
	}

	if !e.Constant && !hasKey(e.Key) {
		add(SeverityWarn, codeEmptyKeys, "entry %d has no keys and is not constant; it never activates", e.UID)
	}
	if e.Selective && !hasKey(e.KeySecondary) {
		add(SeverityWarn, codeMissingSecondary, "entry %d is selective but has no secondary keys", e.UID)
	}
	if e.Probability != nil && (*e.Probability < 0 || *e.Probability > 100) {
		add(SeverityError, codeProbabilityRange, "entry %d probability %d is outside 0-100", e.UID, *e.Probability)
	}
	if e.UseProbability && (e.Probability == nil || *e.Probability == 0) {
		add(SeverityWarn, codeProbabilityUnset, "entry %d uses probability 0; it never activates", e.UID)
	}
	if strings.TrimSpace(e.Content) == "" {
		add(SeverityWarn, codeEmptyContent, "entry %d has no content", e.UID)
	}
	if !e.Position.Valid() {
		add(SeverityError, codeUnknownPosition, "entry %d has unknown %s", e.UID, e.Position)
	}
	if options.Budget > 0 && options.Counter != nil {
		if n := options.Counter.Count(e.Content + "\n"); n >= options.Budget {
			add(SeverityWarn, codeOverBudget, "entry %d needs %d tokens; budget is %d", e.UID, n, options.Budget)
		}
	}
	return issues
}

func hasKey(keys []string) bool {
	for _, key := range keys {
		if strings.TrimSpace(key) != "" {
			return true
		}
	}
	return false
}
