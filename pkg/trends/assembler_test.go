package trends

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedSource returns its results in order, repeating the last one.
type scriptedSource struct {
	results [][]string
	panicOn int
	calls   int
}

func (s *scriptedSource) Extract(_ context.Context) []string {
	s.calls++
	if s.panicOn == s.calls {
		panic("selector engine exploded")
	}
	if len(s.results) == 0 {
		return nil
	}
	idx := min(s.calls-1, len(s.results)-1)
	return s.results[idx]
}

var (
	seoul     = time.FixedZone("KST", 9*60*60)
	fixedTime = time.Date(2026, 10, 16, 12, 0, 0, 0, seoul)
)

func newTestAssembler(src KeywordSource, opts ...AssemblerOption) *Assembler {
	return NewAssembler(src, FixedClock(fixedTime, seoul), opts...)
}

func assertWellFormed(t *testing.T, s *Snapshot, size int) {
	t.Helper()
	require.NoError(t, s.Validate(size))
	for i := 1; i < len(s.Records); i++ {
		assert.LessOrEqual(t, s.Records[i].SearchCount, s.Records[i-1].SearchCount,
			"search_count must not increase at rank %d", s.Records[i].Rank)
	}
	for _, r := range s.Records {
		assert.True(t, r.UpdatedAt.Equal(s.AssembledAt), "rank %d has its own timestamp", r.Rank)
		assert.Equal(t, TrendStable, r.TrendChange)
	}
}

func TestAssemble_TwoRealKeywords(t *testing.T) {
	src := &scriptedSource{results: [][]string{{"apple", "banana"}}}

	s, err := newTestAssembler(src).Assemble(context.Background())
	require.NoError(t, err)
	assertWellFormed(t, s, DefaultSize)

	assert.Equal(t, 1, src.calls, "no retry when the primary yields keywords")
	assert.Equal(t, 2, s.RealCount)

	assert.Equal(t, TrendRecord{
		Rank: 1, Keyword: "apple", SearchCount: 10000,
		TrendChange: TrendStable, Category: CategoryShopping, UpdatedAt: fixedTime,
	}, s.Records[0])
	assert.Equal(t, TrendRecord{
		Rank: 2, Keyword: "banana", SearchCount: 9950,
		TrendChange: TrendStable, Category: CategoryShopping, UpdatedAt: fixedTime,
	}, s.Records[1])

	vocab := NewDefaultFiller().vocabulary
	for i, r := range s.Records[2:] {
		assert.Equal(t, vocab[i], r.Keyword)
		assert.Equal(t, CategoryOther, r.Category)
		assert.Equal(t, max(1000, 10000-(r.Rank-1)*50), r.SearchCount)
	}
}

func TestAssemble_NoKeywordsUsesFillerOnly(t *testing.T) {
	src := &scriptedSource{}

	s, err := newTestAssembler(src).Assemble(context.Background())
	require.NoError(t, err)
	assertWellFormed(t, s, DefaultSize)

	assert.Equal(t, 2, src.calls, "empty primary result is retried exactly once")
	assert.Zero(t, s.RealCount)
	for _, r := range s.Records {
		assert.Equal(t, CategoryOther, r.Category)
		assert.False(t, strings.HasPrefix(r.Keyword, DefaultFillerLabel+" "))
	}
	assert.Equal(t, 5050, s.Records[DefaultSize-1].SearchCount)
}

func TestAssemble_RetryRecovers(t *testing.T) {
	src := &scriptedSource{results: [][]string{nil, {"캠핑의자"}}}

	s, err := newTestAssembler(src).Assemble(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, src.calls)
	assert.Equal(t, "캠핑의자", s.Records[0].Keyword)
	assert.Equal(t, CategoryShopping, s.Records[0].Category)
}

func TestAssemble_SecondarySource(t *testing.T) {
	primary := &scriptedSource{}
	secondary := &scriptedSource{results: [][]string{{"롱패딩"}}}

	s, err := newTestAssembler(primary, WithSecondary(secondary)).Assemble(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, secondary.calls)
	assert.Equal(t, "롱패딩", s.Records[0].Keyword)
}

func TestAssemble_PanickingSourceIsTreatedAsEmpty(t *testing.T) {
	src := &scriptedSource{panicOn: 1, results: [][]string{{"니트", "패딩"}}}

	s, err := newTestAssembler(src).Assemble(context.Background())
	require.NoError(t, err)
	assertWellFormed(t, s, DefaultSize)
	assert.Equal(t, []string{"니트", "패딩"}, []string{s.Records[0].Keyword, s.Records[1].Keyword})

	emptyRetry := &scriptedSource{panicOn: 1}
	s, err = newTestAssembler(emptyRetry).Assemble(context.Background())
	require.NoError(t, err)
	assert.Zero(t, s.RealCount)
}

func TestAssemble_FullRealSnapshot(t *testing.T) {
	keywords := make([]string, 0, 120)
	for i := 0; i < 120; i++ {
		keywords = append(keywords, fmt.Sprintf("kw-%03d", i))
	}
	src := &scriptedSource{results: [][]string{keywords}}

	s, err := newTestAssembler(src).Assemble(context.Background())
	require.NoError(t, err)
	assertWellFormed(t, s, DefaultSize)

	assert.Equal(t, DefaultSize, s.RealCount)
	last := s.Records[DefaultSize-1]
	assert.Equal(t, "kw-099", last.Keyword)
	assert.Equal(t, CategoryShopping, last.Category)
	assert.Equal(t, 5050, last.SearchCount)
}

func TestAssemble_CleansRawKeywords(t *testing.T) {
	src := &scriptedSource{results: [][]string{{" 니트 ", "니트", "x", "", "패딩"}}}

	s, err := newTestAssembler(src).Assemble(context.Background())
	require.NoError(t, err)
	assertWellFormed(t, s, DefaultSize)
	assert.Equal(t, 2, s.RealCount)
}

func TestAssemble_SmallSizeWithPlaceholders(t *testing.T) {
	src := &scriptedSource{results: [][]string{{"apple"}}}
	a := newTestAssembler(src, WithSize(4), WithFiller(NewFiller([]string{"banana"}, "term")))

	s, err := a.Assemble(context.Background())
	require.NoError(t, err)
	assertWellFormed(t, s, 4)

	var got []string
	for _, r := range s.Records {
		got = append(got, r.Keyword)
	}
	assert.Equal(t, []string{"apple", "banana", "term 3", "term 4"}, got)
}

func TestSearchCountFormulas(t *testing.T) {
	// real entries have no floor, filler entries never drop below 1000
	assert.Equal(t, 0, realSearchCount(201))
	assert.Equal(t, -50, realSearchCount(202))
	assert.Equal(t, 1000, fillerSearchCount(202))
	assert.Equal(t, 1000, fillerSearchCount(181))
	assert.Equal(t, 1050, fillerSearchCount(180))
}

func TestValidate(t *testing.T) {
	ok := Snapshot{Records: []TrendRecord{{Rank: 1, Keyword: "aa"}, {Rank: 2, Keyword: "bb"}}}
	require.NoError(t, ok.Validate(2))

	assert.Error(t, ok.Validate(3))
	assert.Error(t, Snapshot{Records: []TrendRecord{{Rank: 2, Keyword: "aa"}}}.Validate(1))
	assert.Error(t, Snapshot{Records: []TrendRecord{{Rank: 1, Keyword: "aa"}, {Rank: 2, Keyword: "aa"}}}.Validate(2))
	assert.Error(t, Snapshot{Records: []TrendRecord{{Rank: 1, Keyword: "a"}}}.Validate(1))
}

func TestAssemblyErrorUnwraps(t *testing.T) {
	inner := errors.New("ranks out of order")
	err := error(&AssemblyError{SnapshotID: "abc", Err: inner})

	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "abc")
}

func TestSnapshotTopAndClone(t *testing.T) {
	s := Snapshot{Records: []TrendRecord{{Rank: 1, Keyword: "aa"}, {Rank: 2, Keyword: "bb"}, {Rank: 3, Keyword: "cc"}}}

	assert.Len(t, s.Top(2), 2)
	assert.Len(t, s.Top(10), 3)

	c := s.Clone()
	c.Records[0].Keyword = "zz"
	assert.Equal(t, "aa", s.Records[0].Keyword)
}
