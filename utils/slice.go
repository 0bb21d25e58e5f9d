package utils

import "strings"

// UniqueStrings trims entries, drops empty ones and removes duplicates while
// keeping first-seen order. With fold set, duplicates are detected case-insensitively.
func UniqueStrings(slice []string, fold bool) []string {
	keys := make(map[string]bool)
	list := []string{}
	for _, entry := range slice {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		key := entry
		if fold {
			key = strings.ToLower(entry)
		}
		if !keys[key] {
			keys[key] = true
			list = append(list, entry)
		}
	}
	return list
}

// ContainsString reports whether s is in list, optionally ignoring case.
func ContainsString(list []string, s string, fold bool) bool {
	for _, entry := range list {
		if entry == s || (fold && strings.EqualFold(entry, s)) {
			return true
		}
	}
	return false
}
