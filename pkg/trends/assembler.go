package trends

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"shoptrend-go/pkg/logger"
)

// KeywordSource yields ordered unique keywords; an empty result means the
// source had nothing usable.
type KeywordSource interface {
	Extract(ctx context.Context) []string
}

// AssemblyError reports a snapshot that broke its invariants.
type AssemblyError struct {
	SnapshotID string
	Err        error
}

func (e *AssemblyError) Error() string {
	return fmt.Sprintf("assemble snapshot %s: %v", e.SnapshotID, e.Err)
}

func (e *AssemblyError) Unwrap() error {
	return e.Err
}

// errSourcePanicked marks a keyword source that panicked instead of
// returning.
var errSourcePanicked = errors.New("keyword source panicked")

// Assembler turns extracted keywords into a complete ranked snapshot.
type Assembler struct {
	primary   KeywordSource
	secondary KeywordSource
	filler    *Filler
	clock     Clock
	size      int
	log       *logger.Logger
}

// AssemblerOption customizes an Assembler.
type AssemblerOption func(*Assembler)

// WithSecondary sets the source tried once when the primary yields nothing.
// By default the primary is asked again.
func WithSecondary(src KeywordSource) AssemblerOption {
	return func(a *Assembler) {
		a.secondary = src
	}
}

func WithFiller(f *Filler) AssemblerOption {
	return func(a *Assembler) {
		a.filler = f
	}
}

func WithSize(n int) AssemblerOption {
	return func(a *Assembler) {
		if n > 0 {
			a.size = n
		}
	}
}

func NewAssembler(primary KeywordSource, clock Clock, opts ...AssemblerOption) *Assembler {
	a := &Assembler{
		primary:   primary,
		secondary: primary,
		filler:    NewDefaultFiller(),
		clock:     clock,
		size:      DefaultSize,
		log:       logger.GetLogger().WithField("component", "trend_assembler"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Size is the number of records every snapshot holds.
func (a *Assembler) Size() int {
	return a.size
}

// Assemble builds a snapshot of exactly Size records. Extraction failures
// count as zero real keywords; an error is returned only when the result
// breaks the snapshot invariants.
func (a *Assembler) Assemble(ctx context.Context) (*Snapshot, error) {
	start := time.Now()

	keywords, err := a.extract(ctx, a.primary)
	if err != nil || len(keywords) == 0 {
		a.log.WithFields(map[string]interface{}{
			"primary_error": errString(err),
		}).Warn("Primary keyword source returned nothing, retrying secondary")
		keywords, err = a.extract(ctx, a.secondary)
		if err != nil {
			a.log.WithError(err).Warn("Secondary keyword source failed")
			keywords = nil
		}
	}
	keywords = uniqueKeywords(keywords, a.size)

	now := a.clock.Now()
	records := make([]TrendRecord, 0, a.size)
	for i, kw := range keywords {
		rank := i + 1
		records = append(records, TrendRecord{
			Rank:        rank,
			Keyword:     kw,
			SearchCount: realSearchCount(rank),
			TrendChange: TrendStable,
			Category:    CategoryShopping,
			UpdatedAt:   now,
		})
	}

	if len(records) < a.size {
		padded := a.filler.Pad(keywords, a.size)
		for i := len(records); i < len(padded); i++ {
			rank := i + 1
			records = append(records, TrendRecord{
				Rank:        rank,
				Keyword:     padded[i],
				SearchCount: fillerSearchCount(rank),
				TrendChange: TrendStable,
				Category:    CategoryOther,
				UpdatedAt:   now,
			})
		}
	}
	if len(records) > a.size {
		records = records[:a.size]
	}

	snapshot := &Snapshot{
		ID:          uuid.NewString(),
		Records:     records,
		AssembledAt: now,
		RealCount:   len(keywords),
	}
	if err := snapshot.Validate(a.size); err != nil {
		return nil, &AssemblyError{SnapshotID: snapshot.ID, Err: err}
	}

	a.log.WithFields(map[string]interface{}{
		"snapshot_id": snapshot.ID,
		"real":        snapshot.RealCount,
		"filler":      a.size - snapshot.RealCount,
		"duration":    time.Since(start).String(),
	}).Info("Assembled trend snapshot")

	return snapshot, nil
}

// extract calls src, turning a panic into an error.
func (a *Assembler) extract(ctx context.Context, src KeywordSource) (keywords []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errSourcePanicked, r)
		}
	}()
	return src.Extract(ctx), nil
}

// uniqueKeywords drops blank, single-rune and repeated entries and caps the
// result at limit.
func uniqueKeywords(keywords []string, limit int) []string {
	out := make([]string, 0, min(len(keywords), limit))
	seen := make(map[string]struct{}, len(keywords))
	for _, raw := range keywords {
		if len(out) >= limit {
			break
		}
		kw := strings.TrimSpace(raw)
		if utf8.RuneCountInString(kw) < 2 {
			continue
		}
		if _, dup := seen[kw]; dup {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}
	return out
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
