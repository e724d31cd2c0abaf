package services

import "testing"

func TestClassifyDecision(t *testing.T) {
	cases := []struct {
		name string
		msg  string
		want Decision
	}{
		{name: "plain_yes", msg: "yes", want: DecisionAffirmative},
		{name: "upper_yes", msg: "YES", want: DecisionAffirmative},
		{name: "short_y", msg: "y", want: DecisionAffirmative},
		{name: "yes_punctuated", msg: "Yes!", want: DecisionAffirmative},
		{name: "yes_whitespace", msg: "  yes  ", want: DecisionAffirmative},
		{name: "go_ahead", msg: "go ahead", want: DecisionAffirmative},
		{name: "do_it", msg: "do it.", want: DecisionAffirmative},
		{name: "okay", msg: "okay", want: DecisionAffirmative},
		{name: "plain_no", msg: "no", want: DecisionNegative},
		{name: "short_n", msg: "n", want: DecisionNegative},
		{name: "nope", msg: "Nope", want: DecisionNegative},
		{name: "cancel", msg: "cancel", want: DecisionNegative},
		{name: "never_mind", msg: "never mind", want: DecisionNegative},
		{name: "dont", msg: "don't", want: DecisionNegative},
		{name: "maybe", msg: "maybe", want: DecisionUndecided},
		{name: "empty", msg: "", want: DecisionUndecided},
		{name: "whitespace_only", msg: "   ", want: DecisionUndecided},
		{name: "question", msg: "what will the crawl do?", want: DecisionUndecided},
		{name: "yes_inside_sentence", msg: "yes but first tell me what it does", want: DecisionUndecided},
		{name: "unrelated", msg: "show me the candidates", want: DecisionUndecided},
		{name: "yes_no_both", msg: "yes or no", want: DecisionUndecided},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ClassifyDecision(tc.msg)
			if got != tc.want {
				t.Fatalf("ClassifyDecision(%q)=%v, want %v", tc.msg, got, tc.want)
			}
		})
	}
}
