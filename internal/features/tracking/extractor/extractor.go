package extractor

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"freight-tracker/internal/features/tracking/domain"
)

// Extraction is the normalized reading of one carrier result.
type Extraction struct {
	Kind domain.StatusKind
	// Date is the delivery date for Delivered and the ETA for InTransit.
	Date *time.Time
	// Raw is the text that was searched. It is for diagnostics only.
	Raw string
}

// maxGap bounds how much non-digit text may sit between a cue and its date.
const maxGap = 40

const datePattern = `\b(\d{1,2}/\d{1,2}/(?:\d{4}|\d{2}))\b`

var gapPattern = fmt.Sprintf(`([^0-9]{0,%d}?)`, maxGap)

var (
	deliveredCues = regexp.MustCompile(`(?i)\b(?:delivered on time on|shipment has been delivered|delivered to customer|actual delivery(?: date)?|delivery date|delivered)\b` +
		gapPattern + datePattern)

	etaCues = regexp.MustCompile(`(?i)(?:\bestimated delivery date|\bestimated delivery|\best\.? delivery date|\bexpected delivery(?: date)?|\bprojected delivery(?: date)?|\bscheduled delivery(?: date)?|\beta is|\beta)\b` +
		gapPattern + datePattern)

	adjacentDate = regexp.MustCompile(`^` + gapPattern + datePattern)

	// etaMarker must not appear between a delivered cue and its date.
	etaMarker = regexp.MustCompile(`(?i)\b(?:estimat\w*|expect\w*|project\w*|anticipat\w*|est|eta)\b`)

	// fieldBreak ends a gap: the date past it belongs to another field.
	fieldBreak = regexp.MustCompile(`(?i)\b(?:pickup|pick up|picked|ship\w*|appointment)\b|\n[^\n]*:`)
)

// Words that turn a delivered cue into something else ("Estimated Delivery Date").
var cueQualifiers = map[string]bool{
	"estimated":   true,
	"est":         true,
	"est.":        true,
	"expected":    true,
	"projected":   true,
	"scheduled":   true,
	"anticipated": true,
	"not":         true,
	"attempted":   true,
}

type compiledOverride struct {
	re   *regexp.Regexp
	kind domain.StatusKind
}

// Extractor maps carrier text to (StatusKind, Date) using a shared two-tier cue
// search preceded by per-carrier phrase overrides.
type Extractor struct {
	overrides map[domain.Carrier][]compiledOverride
}

// New builds an Extractor from the given lexicons.
func New(lexicons ...Lexicon) *Extractor {
	e := &Extractor{overrides: make(map[domain.Carrier][]compiledOverride)}
	for _, lex := range lexicons {
		for _, o := range lex.Overrides {
			phrase := strings.TrimSpace(o.Phrase)
			if phrase == "" {
				continue
			}
			e.overrides[lex.Carrier] = append(e.overrides[lex.Carrier], compiledOverride{
				re:   regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(phrase) + `\b`),
				kind: o.Kind,
			})
		}
	}
	return e
}

// NewDefault builds an Extractor with DefaultLexicons.
func NewDefault() *Extractor {
	return New(DefaultLexicons()...)
}

// Extract normalizes an adapter result. It never fails: anything it cannot read
// becomes Unknown with the searched text attached.
func (e *Extractor) Extract(carrier domain.Carrier, result *domain.FetchResult) Extraction {
	if result == nil {
		return Extraction{Kind: domain.StatusUnknown}
	}

	if s := result.Structured; s != nil {
		if s.Found {
			flat := strings.TrimSpace(s.Phrase + " " + s.Date)
			if ex := e.ExtractText(carrier, flat); ex.Kind != domain.StatusUnknown || result.Text == "" {
				return ex
			}
		} else if result.Text == "" {
			return Extraction{Kind: domain.StatusUnknown}
		}
	}

	return e.ExtractText(carrier, result.Text)
}

// ExtractText applies, in order: carrier overrides, delivered cues, ETA cues.
func (e *Extractor) ExtractText(carrier domain.Carrier, text string) Extraction {
	if ex, ok := e.matchOverride(carrier, text); ok {
		return ex
	}

	if d, ok := findDelivered(text); ok {
		return Extraction{Kind: domain.StatusDelivered, Date: &d, Raw: text}
	}

	if d, ok := findETA(text); ok {
		return Extraction{Kind: domain.StatusInTransit, Date: &d, Raw: text}
	}

	return Extraction{Kind: domain.StatusUnknown, Raw: text}
}

func (e *Extractor) matchOverride(carrier domain.Carrier, text string) (Extraction, bool) {
	for _, o := range e.overrides[carrier] {
		loc := o.re.FindStringIndex(text)
		if loc == nil {
			continue
		}

		ex := Extraction{Kind: o.kind, Raw: text}
		if d, ok := findForKind(o.kind, text); ok {
			ex.Date = &d
		} else if o.kind == domain.StatusDelivered {
			// "Invoiced 06/10/2024" carries no cue of its own.
			if d, ok := dateAfter(text[loc[1]:]); ok {
				ex.Date = &d
			}
		}
		return ex, true
	}
	return Extraction{}, false
}

func findForKind(kind domain.StatusKind, text string) (time.Time, bool) {
	switch kind {
	case domain.StatusDelivered:
		return findDelivered(text)
	case domain.StatusInTransit:
		return findETA(text)
	default:
		return time.Time{}, false
	}
}

func findDelivered(text string) (time.Time, bool) {
	return findCue(deliveredCues, text, func(m []int) bool {
		return !qualified(text[:m[0]]) && !etaMarker.MatchString(text[m[2]:m[3]])
	})
}

func findETA(text string) (time.Time, bool) {
	return findCue(etaCues, text, func([]int) bool { return true })
}

// findCue returns the first valid date that re pairs with a cue. A rejected
// match resumes the search at its gap, so a cue inside the gap still counts.
func findCue(re *regexp.Regexp, text string, accept func(m []int) bool) (time.Time, bool) {
	for pos := 0; pos < len(text); {
		m := re.FindStringSubmatchIndex(text[pos:])
		if m == nil {
			break
		}
		for i := range m {
			m[i] += pos
		}
		pos = m[2]

		if !accept(m) || fieldBreak.MatchString(text[m[2]:m[3]]) {
			continue
		}
		if d, err := domain.ParseDate(text[m[4]:m[5]]); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}

func dateAfter(text string) (time.Time, bool) {
	m := adjacentDate.FindStringSubmatchIndex(text)
	if m == nil || etaMarker.MatchString(text[m[2]:m[3]]) || fieldBreak.MatchString(text[m[2]:m[3]]) {
		return time.Time{}, false
	}
	d, err := domain.ParseDate(text[m[4]:m[5]])
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// qualified reports whether the word right before a cue negates or hedges it.
func qualified(before string) bool {
	before = strings.TrimRight(before, " \t\r\n:")
	if before == "" {
		return false
	}
	word := before
	if i := strings.LastIndexAny(before, " \t\r\n"); i >= 0 {
		word = before[i+1:]
	}
	return cueQualifiers[strings.ToLower(strings.Trim(word, ",;:()"))]
}
