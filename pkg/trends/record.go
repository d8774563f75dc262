package trends

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// DefaultSize is the number of records in a complete snapshot.
const DefaultSize = 100

const (
	BaseSearchCount  = 10000
	SearchCountStep  = 50
	FillerCountFloor = 1000
)

type Category string

const (
	CategoryShopping Category = "shopping"
	CategoryOther    Category = "other"
)

type TrendChange string

const (
	TrendStable TrendChange = "stable"
	TrendUp     TrendChange = "up"
	TrendDown   TrendChange = "down"
	TrendNew    TrendChange = "new"
)

// TrendRecord is one ranked keyword.
type TrendRecord struct {
	Rank        int         `json:"rank"`
	Keyword     string      `json:"keyword"`
	SearchCount int         `json:"search_count"`
	TrendChange TrendChange `json:"trend_change"`
	Category    Category    `json:"category"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Snapshot is the result of one assembly. The zero value is the empty
// snapshot served before the first successful refresh.
type Snapshot struct {
	ID          string        `json:"id"`
	Records     []TrendRecord `json:"records"`
	AssembledAt time.Time     `json:"assembled_at"`
	RealCount   int           `json:"real_count"`
}

func (s Snapshot) Len() int {
	return len(s.Records)
}

func (s Snapshot) IsEmpty() bool {
	return len(s.Records) == 0
}

// Top returns the first n records, or all of them when n is out of range.
func (s Snapshot) Top(n int) []TrendRecord {
	if n < 0 || n >= len(s.Records) {
		return s.Records
	}
	return s.Records[:n]
}

// Clone returns a copy whose record slice is not shared with s.
func (s Snapshot) Clone() Snapshot {
	c := s
	if s.Records != nil {
		c.Records = make([]TrendRecord, len(s.Records))
		copy(c.Records, s.Records)
	}
	return c
}

// realSearchCount has no floor; it only goes non-positive past rank 200.
func realSearchCount(rank int) int {
	return BaseSearchCount - (rank-1)*SearchCountStep
}

func fillerSearchCount(rank int) int {
	return max(FillerCountFloor, BaseSearchCount-(rank-1)*SearchCountStep)
}

// Validate checks that s holds exactly size records ranked 1..size with
// distinct keywords.
func (s Snapshot) Validate(size int) error {
	if len(s.Records) != size {
		return fmt.Errorf("snapshot has %d records, want %d", len(s.Records), size)
	}
	seen := make(map[string]int, len(s.Records))
	for i, r := range s.Records {
		if r.Rank != i+1 {
			return fmt.Errorf("record %d has rank %d", i, r.Rank)
		}
		if utf8.RuneCountInString(r.Keyword) < 2 {
			return fmt.Errorf("rank %d has keyword %q shorter than two characters", r.Rank, r.Keyword)
		}
		if prev, dup := seen[r.Keyword]; dup {
			return fmt.Errorf("keyword %q repeated at ranks %d and %d", r.Keyword, prev, r.Rank)
		}
		seen[r.Keyword] = r.Rank
	}
	return nil
}
