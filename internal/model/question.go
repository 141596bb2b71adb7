package model

import "strings"

// SampleQuestions are the shortcuts offered on an idle page
var SampleQuestions = []string{
	"Who won the 2014 FIFA World Cup?",
	"How many World Cups has Brazil won?",
	"Compare France and Germany's World Cup records",
	"Which country hosted the 2006 World Cup?",
	"Who won the 2022 World Cup final?",
}

// IsSampleQuestion reports whether q is one of the sample shortcuts
func IsSampleQuestion(q string) bool {
	for _, s := range SampleQuestions {
		if s == q {
			return true
		}
	}
	return false
}

// NormalizeQuestion trims surrounding whitespace
func NormalizeQuestion(q string) string {
	return strings.TrimSpace(q)
}
