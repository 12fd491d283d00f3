package qcmpipeline

import "testing"

func TestQuestionKey(t *testing.T) {
	tests := []struct {
		name string
		q    Question
		want string
	}{
		{"id wins", Question{ID: "q1", ChunkID: "c1"}, "q1"},
		{"chunk fallback", Question{ChunkID: "c1"}, "c1"},
		{"neither", Question{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.q.Key(); got != tt.want {
				t.Errorf("Key() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestQuestionModuleNormalization(t *testing.T) {
	if got := (&Question{ModuleID: "cardio"}).Module(); got != "cardio" {
		t.Errorf("Module() = %q", got)
	}
	if got := (&Question{ModuleID: "cardiologie"}).Module(); got != ModuleUnknown {
		t.Errorf("off-set module normalized to %q, want %q", got, ModuleUnknown)
	}
	if got := (&Question{}).Module(); got != ModuleUnknown {
		t.Errorf("empty module normalized to %q, want %q", got, ModuleUnknown)
	}
}

func TestValidateFormat(t *testing.T) {
	valid := func() *Question {
		return &Question{
			Text:          "Question ?",
			Options:       []string{"A", "B", "C", "D"},
			CorrectAnswer: 3,
			Explanation:   "Explication.",
		}
	}

	if err := valid().ValidateFormat(); err != nil {
		t.Fatalf("valid question rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Question)
	}{
		{"three options", func(q *Question) { q.Options = q.Options[:3] }},
		{"five options", func(q *Question) { q.Options = append(q.Options, "E") }},
		{"blank option", func(q *Question) { q.Options[2] = "  " }},
		{"duplicate options", func(q *Question) { q.Options[1] = "A" }},
		{"answer below range", func(q *Question) { q.CorrectAnswer = -1 }},
		{"answer above range", func(q *Question) { q.CorrectAnswer = 4 }},
		{"empty text", func(q *Question) { q.Text = " " }},
		{"empty explanation", func(q *Question) { q.Explanation = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := valid()
			tt.mutate(q)
			if err := q.ValidateFormat(); err == nil {
				t.Error("expected a format error")
			}
		})
	}
}

func TestCloneIsIndependent(t *testing.T) {
	q := &Question{
		ID:               "q1",
		Options:          []string{"A", "B", "C", "D"},
		RejectionReasons: []string{ReasonContextScore},
	}
	c := q.Clone()
	c.Options[0] = "Z"
	c.RejectionReasons[0] = "changed"
	c.Mode = ModeRevision

	if q.Options[0] != "A" || q.RejectionReasons[0] != ReasonContextScore || q.Mode != "" {
		t.Error("mutating the clone leaked into the original")
	}
}

func TestScoredTextJoinsTextAndExplanation(t *testing.T) {
	q := &Question{Text: "Question ?", Explanation: "Explication."}
	if got := q.ScoredText(); got != "Question ? Explication." {
		t.Errorf("ScoredText() = %q", got)
	}
	bare := &Question{Text: "Question ?"}
	if got := bare.ScoredText(); got != "Question ?" {
		t.Errorf("ScoredText() without explanation = %q", got)
	}
}
