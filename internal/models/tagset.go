package models

import (
	"errors"
	"strings"
)

// ErrNoCheatMethod is returned when no valid cheat method survives parsing.
var ErrNoCheatMethod = errors.New("no valid cheat method given")

// CheatMethodSet is an ordered, duplicate-free set of cheat-method tags.
type CheatMethodSet []string

// ParseCheatMethods splits a comma-joined tag list, keeps only tags from
// vocabulary, and drops duplicates. An empty result is ErrNoCheatMethod.
func ParseCheatMethods(csv string, vocabulary []string) (CheatMethodSet, error) {
	allowed := make(map[string]bool, len(vocabulary))
	for _, v := range vocabulary {
		allowed[v] = true
	}
	var out CheatMethodSet
	for _, tag := range strings.Split(csv, ",") {
		tag = strings.TrimSpace(tag)
		if allowed[tag] && !out.Contains(tag) {
			out = append(out, tag)
		}
	}
	if len(out) == 0 {
		return nil, ErrNoCheatMethod
	}
	return out, nil
}

func (s CheatMethodSet) Contains(tag string) bool {
	for _, t := range s {
		if t == tag {
			return true
		}
	}
	return false
}

func (s CheatMethodSet) String() string {
	return strings.Join(s, ",")
}

// AddToSet appends item to a comma-joined set unless it is already present.
func AddToSet(csv, item string) string {
	if item == "" {
		return csv
	}
	if csv == "" {
		return item
	}
	for _, existing := range strings.Split(csv, ",") {
		if existing == item {
			return csv
		}
	}
	return csv + "," + item
}
