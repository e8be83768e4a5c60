package stubserver

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Makepad-fr/freetodo/internal/model"
)

// Parse is a crude rule-based stand-in for the real language parser. It
// splits text into clauses and pulls a goal, a deadline phrase and people
// out of each one.
func Parse(text string) []model.Item {
	var out []model.Item
	for _, clause := range clauseSplit.Split(text, -1) {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			continue
		}
		if it, ok := parseClause(clause); ok {
			out = append(out, it)
		}
	}
	if out == nil {
		out = []model.Item{}
	}
	return out
}

var (
	clauseSplit = regexp.MustCompile(`(?i)[.;!?\n]+|\s+and then\s+`)
	leadIn      = regexp.MustCompile(`(?i)^(i|we)\s+(would like to|'d like to|need to|have to|must|want to|should|will)\s+`)
	dayPhrase   = regexp.MustCompile(`(?i)\b(?:(?:on|next|this)\s+)?(today|tonight|tomorrow|next week|monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)
	timePhrase  = regexp.MustCompile(`(?i)\bat\s+\d{1,2}(?::\d{2})?\s*(?:am|pm)?\b|\bat\s+noon\b`)
	personCue   = regexp.MustCompile(`\b(?i:with|visit|call|see|meet|email|ask|tell)\s+((?:\p{Lu}\p{Ll}+)(?:\s+and\s+\p{Lu}\p{Ll}+)*)`)
	spaces      = regexp.MustCompile(`\s+`)
)

func parseClause(clause string) (model.Item, bool) {
	var deadline []string
	if m := dayPhrase.FindString(clause); m != "" {
		deadline = append(deadline, strings.ToLower(m))
	}
	if m := timePhrase.FindString(clause); m != "" {
		deadline = append(deadline, strings.ToLower(m))
	}

	people := []string{}
	for _, m := range personCue.FindAllStringSubmatch(clause, -1) {
		for _, name := range strings.Split(m[1], " and ") {
			people = appendUnique(people, strings.TrimSpace(name))
		}
	}
	if len(people) == 0 {
		people = []string{"Me"}
	}

	goal := leadIn.ReplaceAllString(clause, "")
	goal = dayPhrase.ReplaceAllString(goal, "")
	goal = timePhrase.ReplaceAllString(goal, "")
	goal = strings.TrimSpace(spaces.ReplaceAllString(goal, " "))
	if goal == "" {
		return model.Item{}, false
	}
	return model.Item{
		Goal:     upperFirst(goal),
		Deadline: strings.Join(deadline, " "),
		People:   people,
	}, true
}

func upperFirst(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[n:]
}

func appendUnique(list []string, s string) []string {
	if s == "" {
		return list
	}
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
