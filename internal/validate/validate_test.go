package validate

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"

	"lorekeeper/internal/lore"
)

type mockLoader struct {
	worlds  map[string]*lore.Collection
	listErr error
}

func (m *mockLoader) List(ctx context.Context) ([]string, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	names := make([]string, 0, len(m.worlds))
	for name := range m.worlds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (m *mockLoader) Load(ctx context.Context, name string) (*lore.Collection, error) {
	return m.worlds[name], nil
}

type wordCounter struct{}

func (wordCounter) Count(text string) int { return len(strings.Fields(text)) }

func world(entries ...*lore.Entry) *lore.Collection {
	c := lore.NewCollection()
	for _, e := range entries {
		c.Put(e)
	}
	return c
}

func goodEntry(uid int) *lore.Entry {
	e := lore.NewEntry(uid)
	e.Key = []string{"sword"}
	e.Content = "A blade."
	return e
}

func TestRun_CleanWorld(t *testing.T) {
	loader := &mockLoader{worlds: map[string]*lore.Collection{"Eldoria": world(goodEntry(0), goodEntry(1))}}
	report, err := Run(context.Background(), loader, Options{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(report.Issues) != 0 {
		t.Fatalf("expected no issues, got %+v", report.Issues)
	}
}

func TestRun_EntryIssues(t *testing.T) {
	noKeys := goodEntry(0)
	noKeys.Key = []string{" "}
	selective := goodEntry(1)
	selective.Selective = true
	badProbability := goodEntry(2)
	badProbability.Probability = lore.IntPtr(150)
	zeroProbability := goodEntry(3)
	zeroProbability.UseProbability = true
	empty := goodEntry(4)
	empty.Content = "  "
	position := goodEntry(5)
	position.Position = lore.Position(9)
	disabled := lore.NewEntry(6)
	disabled.Disable = true

	loader := &mockLoader{worlds: map[string]*lore.Collection{
		"Eldoria": world(noKeys, selective, badProbability, zeroProbability, empty, position, disabled),
	}}
	report, err := Run(context.Background(), loader, Options{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	want := map[string]int{
		codeEmptyKeys:        0,
		codeMissingSecondary: 1,
		codeProbabilityRange: 2,
		codeProbabilityUnset: 3,
		codeEmptyContent:     4,
		codeUnknownPosition:  5,
	}
	for code, uid := range want {
		if !hasIssue(report.Issues, code, uid) {
			t.Errorf("expected %s on entry %d", code, uid)
		}
	}
	if len(report.Issues) != len(want) {
		t.Errorf("expected %d issues, got %+v", len(want), report.Issues)
	}
	if report.Errors() != 2 {
		t.Errorf("expected 2 errors, got %d", report.Errors())
	}
}

func TestRun_OverBudget(t *testing.T) {
	big := goodEntry(0)
	big.Content = "one two three four five"
	loader := &mockLoader{worlds: map[string]*lore.Collection{"Eldoria": world(big, goodEntry(1))}}

	report, err := Run(context.Background(), loader, Options{Budget: 5, Counter: wordCounter{}})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !hasIssue(report.Issues, codeOverBudget, 0) || len(report.Issues) != 1 {
		t.Fatalf("expected one over-budget issue, got %+v", report.Issues)
	}
}

func TestRun_MissingWorlds(t *testing.T) {
	loader := &mockLoader{worlds: map[string]*lore.Collection{"Eldoria": world(goodEntry(0))}}

	report, err := Run(context.Background(), loader, Options{
		Worlds:     []string{"Eldoria", "Ghost"},
		Referenced: []string{"Eldoria", "Bestiary"},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	var missing []string
	for _, issue := range report.Issues {
		if issue.Code == codeMissingWorld {
			missing = append(missing, issue.World)
		}
	}
	sort.Strings(missing)
	if strings.Join(missing, ",") != "Bestiary,Ghost" {
		t.Fatalf("unexpected missing worlds: %v", missing)
	}
}

func TestRun_Errors(t *testing.T) {
	if _, err := Run(context.Background(), nil, Options{}); err == nil {
		t.Fatalf("expected error for nil loader")
	}
	boom := errors.New("boom")
	if _, err := Run(context.Background(), &mockLoader{listErr: boom}, Options{}); !errors.Is(err, boom) {
		t.Fatalf("expected list error, got %v", err)
	}
}

func hasIssue(issues []Issue, code string, uid int) bool {
	for _, issue := range issues {
		if issue.Code == code && issue.UID == uid {
			return true
		}
	}
	return false
}
