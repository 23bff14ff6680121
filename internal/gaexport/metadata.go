package gaexport

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"go.elara.ws/pcre"
)

// DateLayout is the layout of Metadata dates.
const DateLayout = "2006-01-02"

// exportDateLayout is how the export header writes dates.
const exportDateLayout = "20060102"

// patternCache keeps compiled header patterns; label sets are few and fixed.
type patternCache struct {
	compiled map[string]*pcre.Regexp
	mutex    sync.RWMutex
}

var headerPatterns = &patternCache{compiled: make(map[string]*pcre.Regexp)}

func (pc *patternCache) get(pattern string) (*pcre.Regexp, error) {
	pc.mutex.RLock()
	if re, ok := pc.compiled[pattern]; ok {
		pc.mutex.RUnlock()
		return re, nil
	}
	pc.mutex.RUnlock()

	pc.mutex.Lock()
	defer pc.mutex.Unlock()
	if re, ok := pc.compiled[pattern]; ok {
		return re, nil
	}
	re, err := pcre.Compile(pattern)
	if err != nil {
		return nil, err
	}
	pc.compiled[pattern] = re
	return re, nil
}

// metadataPatterns holds one pattern per header field.
type metadataPatterns struct {
	account   *pcre.Regexp
	property  *pcre.Regexp
	startDate *pcre.Regexp
	endDate   *pcre.Regexp
}

func textPattern(label string) string {
	return `\Q` + label + `\E:[ \t]*(.+)`
}

func datePattern(label string) string {
	return `\Q` + label + `\E:[ \t]*(\d{4}-?\d{2}-?\d{2})`
}

func compileMetadataPatterns(l Labels) (*metadataPatterns, error) {
	var (
		mp  metadataPatterns
		err error
	)
	fields := []struct {
		dst     **pcre.Regexp
		pattern string
	}{
		{&mp.account, textPattern(l.Account)},
		{&mp.property, textPattern(l.Property)},
		{&mp.startDate, datePattern(l.StartDate)},
		{&mp.endDate, datePattern(l.EndDate)},
	}
	for _, f := range fields {
		if *f.dst, err = headerPatterns.get(f.pattern); err != nil {
			return nil, fmt.Errorf("compile metadata pattern %q: %w", f.pattern, err)
		}
	}
	return &mp, nil
}

// extract scans the whole text once per field; missing fields stay empty.
func (mp *metadataPatterns) extract(text string) Metadata {
	return Metadata{
		Account:   firstGroup(mp.account, text),
		Property:  firstGroup(mp.property, text),
		StartDate: normalizeDate(firstGroup(mp.startDate, text)),
		EndDate:   normalizeDate(firstGroup(mp.endDate, text)),
	}
}

func firstGroup(re *pcre.Regexp, text string) string {
	matches := re.FindStringSubmatch(text)
	if len(matches) < 2 {
		return ""
	}
	return strings.TrimSpace(matches[1])
}

// normalizeDate turns 20250131 or 2025-01-31 into 2025-01-31. Impossible
// dates are dropped rather than reported.
func normalizeDate(s string) string {
	if s == "" {
		return ""
	}
	t, err := time.Parse(exportDateLayout, strings.ReplaceAll(s, "-", ""))
	if err != nil {
		return ""
	}
	return t.Format(DateLayout)
}
