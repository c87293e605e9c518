package generator

import (
	"strings"
	"testing"
)

func TestBuildGenerationPrompt(t *testing.T) {
	prompt := buildGenerationPrompt("Logical Reasoning", 5)

	for _, want := range []string{
		"5 multiple-choice questions",
		`"Logical Reasoning"`,
		"exactly 4 answer options",
		"correct_answer",
		`"questions"`,
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestParseQuestions(t *testing.T) {
	raw := `{"questions": [
		{"question": "What is 2+2?",
		 "options": ["3", "4", "5", "6"],
		 "correct_answer": "4",
		 "explanation": "Basic addition."},
		{"question": "What comes next: 2, 4, 8?",
		 "options": ["10", "12", "16", "24"],
		 "correct_answer": "16",
		 "explanation": "Each term doubles."}
	]}`

	questions, err := parseQuestions(raw)
	if err != nil {
		t.Fatalf("parseQuestions: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}
	q := questions[0]
	if q.Text != "What is 2+2?" || q.CorrectAnswer != "4" || len(q.Options) != 4 {
		t.Errorf("unexpected question: %+v", q)
	}
	if q.Explanation == "" {
		t.Error("explanation must be carried through")
	}
}

func TestParseQuestionsDropsMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{
			name: "wrong option count",
			raw: `{"questions": [
				{"question": "Too few options", "options": ["a", "b"], "correct_answer": "a", "explanation": "x"},
				{"question": "Valid", "options": ["a", "b", "c", "d"], "correct_answer": "a", "explanation": "x"}
			]}`,
			want: 1,
		},
		{
			name: "correct answer not among options",
			raw: `{"questions": [
				{"question": "Stray answer", "options": ["a", "b", "c", "d"], "correct_answer": "e", "explanation": "x"}
			]}`,
			want: 0,
		},
		{
			name: "empty question text",
			raw: `{"questions": [
				{"question": "  ", "options": ["a", "b", "c", "d"], "correct_answer": "a", "explanation": "x"}
			]}`,
			want: 0,
		},
		{
			name: "empty batch",
			raw:  `{"questions": []}`,
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			questions, err := parseQuestions(tt.raw)
			if err != nil {
				t.Fatalf("parseQuestions: %v", err)
			}
			if len(questions) != tt.want {
				t.Errorf("expected %d questions, got %d", tt.want, len(questions))
			}
		})
	}
}

func TestParseQuestionsInvalidJSON(t *testing.T) {
	if _, err := parseQuestions("I could not generate questions, sorry."); err == nil {
		t.Fatal("expected an error for non-JSON output")
	}
}

func TestContainsOption(t *testing.T) {
	options := []string{"alpha", "beta", "gamma", "delta"}
	if !containsOption(options, "beta") {
		t.Error("expected beta to be found")
	}
	if containsOption(options, "Beta") {
		t.Error("matching must be case-sensitive")
	}
	if containsOption(options, "") {
		t.Error("the empty string is never a valid answer")
	}
}
