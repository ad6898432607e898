// Package activation decides which lore entries a chat triggers and keeps
// their combined size under the token budget.
package activation

import (
	"math"
	"math/rand/v2"
	"strings"

	"go.uber.org/zap"

	"lorekeeper/internal/lore"
	"lorekeeper/internal/selection"
	"lorekeeper/internal/tokens"
)

type TokenCounter interface {
	Count(text string) int
}

type Substituter interface {
	Substitute(text string) string
}

type identity struct{}

func (identity) Substitute(text string) string { return text }

type Settings struct {
	// Depth is the number of chat exchanges scanned; twice as many
	// messages are read.
	Depth           int
	BudgetPercent   int
	Recursive       bool
	CaseSensitive   bool
	MatchWholeWords bool
}

type Activated struct {
	World   string
	Entry   *lore.Entry
	Content string
	Pass    int
}

type Result struct {
	Activated     []Activated
	Passes        int
	Budget        int
	TokensUsed    int
	BudgetReached bool
}

type Engine struct {
	settings Settings
	counter  TokenCounter
	subst    Substituter
	roll     func() float64
	logger   *zap.Logger
}

type Option func(*Engine)

func WithTokenCounter(c TokenCounter) Option {
	return func(e *Engine) { e.counter = c }
}

func WithSubstituter(s Substituter) Option {
	return func(e *Engine) { e.subst = s }
}

// WithRoller replaces the probability roll. roll must return values in
// [0, 100).
func WithRoller(roll func() float64) Option {
	return func(e *Engine) { e.roll = roll }
}

func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func New(settings Settings, opts ...Option) *Engine {
	e := &Engine{
		settings: settings,
		counter:  tokens.Counter{},
		subst:    identity{},
		roll:     func() float64 { return rand.Float64() * 100 },
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Settings() Settings {
	return e.settings
}

// Budget converts a percentage of the context size to tokens. It is never
// below one.
func Budget(percent, maxContext int) int {
	b := int(math.Round(float64(percent) * float64(maxContext) / 100))
	if b <= 0 {
		return 1
	}
	return b
}

// ScanWindow joins the most recent max(depth*2, 1) messages, newest first.
// chat is oldest first.
func ScanWindow(chat []string, depth int) string {
	n := max(depth*2, 1)
	start := max(len(chat)-n, 0)
	var b strings.Builder
	for i := len(chat) - 1; i >= start; i-- {
		b.WriteString(chat[i])
	}
	return b.String()
}

// Run scans chat for the candidates' keys. Candidates must already be in
// scan priority order. All working state belongs to the call.
func (e *Engine) Run(chat []string, maxContext int, candidates []selection.Candidate) Result {
	sc := newScanner(Matcher{CaseSensitive: e.settings.CaseSensitive, WholeWords: e.settings.MatchWholeWords})
	res := Result{Budget: Budget(e.settings.BudgetPercent, maxContext)}
	e.logger.Debug("world info budget",
		zap.Int("context", maxContext),
		zap.Int("budget", res.Budget),
		zap.Int("percent", e.settings.BudgetPercent))
	if len(candidates) == 0 {
		return res
	}

	window := sc.Fold(ScanWindow(chat, e.settings.Depth))
	activated := make([]bool, len(candidates))
	failed := make([]bool, len(candidates))
	activatedText := ""

	for scanAgain := true; scanAgain; {
		res.Passes++
		pass := res.Passes

		var matched []int
		for i, c := range candidates {
			entry := c.Entry
			if entry == nil || failed[i] || activated[i] || entry.Disable {
				continue
			}
			if pass > 1 && e.settings.Recursive && entry.ExcludeRecursion {
				continue
			}
			if entry.Constant || e.keysMatch(sc, window, entry) {
				matched = append(matched, i)
			}
		}

		scanAgain = e.settings.Recursive && len(matched) > 0
		baseTokens := e.counter.Count(activatedText)
		failedNow := 0
		var buf strings.Builder

		for _, i := range matched {
			c := candidates[i]
			if c.Entry.UseProbability && !e.passesRoll(c.Entry) {
				e.logger.Debug("entry failed probability check",
					zap.String("world", c.World), zap.Int("uid", c.Entry.UID))
				failed[i] = true
				failedNow++
				continue
			}

			content := e.subst.Substitute(c.Entry.Content)
			buf.WriteString(content)
			buf.WriteByte('\n')
			used := baseTokens + e.counter.Count(buf.String())
			if used >= res.Budget {
				e.logger.Debug("world info budget reached",
					zap.Int("budget", res.Budget), zap.Int("tokens", used))
				res.BudgetReached = true
				scanAgain = false
				break
			}

			activated[i] = true
			res.TokensUsed = used
			res.Activated = append(res.Activated, Activated{
				World:   c.World,
				Entry:   c.Entry,
				Content: content,
				Pass:    pass,
			})
			e.logger.Debug("entry activated",
				zap.String("world", c.World), zap.Int("uid", c.Entry.UID), zap.Int("pass", pass))
		}

		if failedNow == len(matched) {
			scanAgain = false
		}

		if scanAgain {
			parts := make([]string, 0, len(matched))
			for _, i := range matched {
				if !failed[i] {
					parts = append(parts, candidates[i].Entry.Content)
				}
			}
			text := sc.Fold(strings.Join(parts, "\n"))
			window = text + "\n" + window
			activatedText = text + "\n" + activatedText
		}
	}

	return res
}

// keysMatch reports whether any primary key matches and, for selective
// entries with secondary keys, at least one secondary key as well.
func (e *Engine) keysMatch(sc *scanner, window string, entry *lore.Entry) bool {
	needSecondary := entry.Selective && len(entry.KeySecondary) > 0
	for _, key := range entry.Key {
		if !sc.match(window, strings.TrimSpace(e.subst.Substitute(key))) {
			continue
		}
		if !needSecondary {
			return true
		}
		for _, secondary := range entry.KeySecondary {
			if sc.match(window, strings.TrimSpace(e.subst.Substitute(secondary))) {
				return true
			}
		}
	}
	return false
}

// passesRoll draws from [0, 100); the entry passes when the draw is below
// its probability. An unset probability counts as zero.
func (e *Engine) passesRoll(entry *lore.Entry) bool {
	p := 0
	if entry.Probability != nil {
		p = *entry.Probability
	}
	return e.roll() < float64(p)
}
