// Package parser turns a file path into structured media metadata using
// nothing but the path itself: no network calls, no catalog access, no
// filesystem reads beyond the string. Every function here is pure and
// restartable.
package parser

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Kind classifies what a path was parsed as.
type Kind string

const (
	KindMovie   Kind = "movie"
	KindTV      Kind = "tv_episode"
	KindUnknown Kind = "unknown"
)

// ParsedMedia is the single return shape every pattern stage feeds into.
type ParsedMedia struct {
	Kind    Kind
	Title   string
	Year    int // 0 when absent
	Season  int
	Episode int
}

var videoExtensions = map[string]struct{}{
	".mkv": {}, ".mp4": {}, ".avi": {}, ".mov": {}, ".wmv": {}, ".flv": {},
	".webm": {}, ".m4v": {}, ".mpg": {}, ".mpeg": {}, ".ts": {}, ".m2ts": {},
	".vob": {}, ".3gp": {},
}

// IsVideoFile reports whether ext (including the leading dot) is in the
// recognized set of video container extensions.
func IsVideoFile(ext string) bool {
	_, ok := videoExtensions[strings.ToLower(ext)]
	return ok
}

var (
	tvSxxExx      = regexp.MustCompile(`(?i)^(.*?)[\s._-]+[Ss](\d{1,2})[Ee](\d{1,3})`)
	tvNxN         = regexp.MustCompile(`(?i)^(.*?)[\s._-]+(\d{1,2})x(\d{1,3})`)
	tvSeasonEp    = regexp.MustCompile(`(?i)^(.*?)[\s._-]+Season\s+(\d{1,2})\s+Episode\s+(\d{1,3})`)
	tvSSeparateEE = regexp.MustCompile(`(?i)^(.*?)[\s._-]+[Ss](\d{1,2})[\s._-]+[Ee](\d{1,3})`)

	movieYearParen = regexp.MustCompile(`^(.*?)[\s._-]*\((\d{4})\)`)
	movieYearBare  = regexp.MustCompile(`(?i)^(.*?)[\s._-]+(\d{4})(?:[\s._-]|$)`)

	parentSeasonDir = regexp.MustCompile(`(?i)season\s*(\d+)`)

	collapseSpace = regexp.MustCompile(`\s+`)
)

// Parse classifies the file at path. The algorithm tries, in order, TV
// patterns against the filename, then movie patterns, then falls back to
// the parent directory name for a season hint, stopping at the first
// match.
func Parse(path string) ParsedMedia {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))

	if m, ok := matchTV(name); ok {
		return m
	}
	if m, ok := matchMovie(name); ok {
		return m
	}
	if m, ok := matchParentSeason(path, name); ok {
		return m
	}
	return ParsedMedia{Kind: KindUnknown, Title: cleanTitle(name)}
}

func matchTV(name string) (ParsedMedia, bool) {
	for _, re := range []*regexp.Regexp{tvSxxExx, tvNxN, tvSeasonEp, tvSSeparateEE} {
		m := re.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		season, err1 := strconv.Atoi(m[2])
		episode, err2 := strconv.Atoi(m[3])
		if err1 != nil || err2 != nil {
			continue
		}
		return ParsedMedia{
			Kind:    KindTV,
			Title:   cleanTitle(m[1]),
			Season:  season,
			Episode: episode,
		}, true
	}
	return ParsedMedia{}, false
}

func matchMovie(name string) (ParsedMedia, bool) {
	for _, re := range []*regexp.Regexp{movieYearParen, movieYearBare} {
		m := re.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		year, err := strconv.Atoi(m[2])
		if err != nil || year < 1900 || year > 2100 {
			continue
		}
		return ParsedMedia{
			Kind:  KindMovie,
			Title: cleanTitle(m[1]),
			Year:  year,
		}, true
	}
	return ParsedMedia{}, false
}

func matchParentSeason(path, name string) (ParsedMedia, bool) {
	parent := filepath.Base(filepath.Dir(path))
	m := parentSeasonDir.FindStringSubmatch(parent)
	if m == nil {
		return ParsedMedia{}, false
	}
	season, err := strconv.Atoi(m[1])
	if err != nil {
		return ParsedMedia{}, false
	}
	grandparent := filepath.Base(filepath.Dir(filepath.Dir(path)))
	return ParsedMedia{
		Kind:   KindTV,
		Title:  cleanTitle(grandparent),
		Season: season,
	}, true
}

var titleCaser = cases.Title(language.English)

func cleanTitle(s string) string {
	s = strings.ReplaceAll(s, ".", " ")
	s = strings.ReplaceAll(s, "_", " ")
	s = collapseSpace.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	return titleCaser.String(s)
}
