package trends

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// DefaultFillerLabel prefixes placeholder keywords once the vocabulary is
// exhausted ("trend").
const DefaultFillerLabel = "트렌드"

// DefaultVocabulary is the curated list of everyday shopping nouns used to
// pad short snapshots. Order matters: it decides filler ranks.
var DefaultVocabulary = []string{
	"노트북", "스마트폰", "에어팟", "갤럭시", "아이폰", "태블릿", "키보드", "마우스",
	"모니터", "헤드셋", "스피커", "충전기", "케이스", "보호필름", "스탠드", "거치대",
	"노트북가방", "마우스패드", "웹캠", "마이크", "블루투스", "와이파이", "라우터", "외장하드",
	"USB", "메모리카드", "배터리", "파워뱅크", "선풍기", "에어컨", "히터", "공기청정기",
	"청소기", "로봇청소기", "세탁기", "건조기", "냉장고", "전자레인지", "오븐", "토스터",
	"커피머신", "믹서", "블렌더", "압력솥", "전기밥솥", "후라이팬", "냄비", "도마",
	"그릇", "텀블러", "보온병", "도시락", "비닐", "장갑", "마스크", "손소독제",
	"티슈", "화장지", "세제", "섬유유연제", "샴푸", "린스", "바디워시", "비누",
	"치약", "칫솔", "수건", "타월", "이불", "베개", "매트리스", "커튼",
	"카펫", "의자", "책상", "책장", "선반", "수납함", "옷걸이", "행거",
	"거울", "조명", "전구", "스위치", "콘센트", "멀티탭", "전선", "테이프",
	"가위", "스테이플러", "클립", "포스트잇", "노트", "연필", "지우개", "계산기",
	"펀치", "파일", "바인더", "폴더", "파일박스",
}

// Filler pads keyword lists to a target size. It is deterministic for a given
// vocabulary, label and input.
type Filler struct {
	vocabulary []string
	label      string
}

// NewFiller keeps the usable vocabulary terms (trimmed, longer than one rune,
// first occurrence only). An empty vocabulary leaves only placeholders.
func NewFiller(vocabulary []string, label string) *Filler {
	if label == "" {
		label = DefaultFillerLabel
	}

	terms := make([]string, 0, len(vocabulary))
	seen := make(map[string]struct{}, len(vocabulary))
	for _, raw := range vocabulary {
		term := strings.TrimSpace(raw)
		if utf8.RuneCountInString(term) < 2 {
			continue
		}
		if _, ok := seen[term]; ok {
			continue
		}
		seen[term] = struct{}{}
		terms = append(terms, term)
	}

	return &Filler{vocabulary: terms, label: label}
}

// NewDefaultFiller uses DefaultVocabulary and DefaultFillerLabel.
func NewDefaultFiller() *Filler {
	return NewFiller(DefaultVocabulary, DefaultFillerLabel)
}

// Pad returns partial followed by vocabulary terms not already present, then
// "<label> <i>" placeholders with i = current length + 1, until the result
// holds exactly n keywords. partial is not modified.
func (f *Filler) Pad(partial []string, n int) []string {
	if len(partial) >= n {
		return append([]string(nil), partial[:max(n, 0)]...)
	}

	out := make([]string, 0, n)
	out = append(out, partial...)
	seen := make(map[string]struct{}, n)
	for _, kw := range partial {
		seen[kw] = struct{}{}
	}

	for _, term := range f.vocabulary {
		if len(out) >= n {
			return out
		}
		if _, ok := seen[term]; ok {
			continue
		}
		seen[term] = struct{}{}
		out = append(out, term)
	}

	for i := len(out) + 1; len(out) < n; i++ {
		placeholder := f.label + " " + strconv.Itoa(i)
		if _, ok := seen[placeholder]; ok {
			continue
		}
		seen[placeholder] = struct{}{}
		out = append(out, placeholder)
	}

	return out
}
