package qcmpipeline

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/google/uuid"
)

// minEntrainementExplanation is the minimum explanation length, in
// characters, for a question to qualify for the entrainement view.
const minEntrainementExplanation = 100

// QuestionsPerExam is the fixed mock-exam size.
const QuestionsPerExam = 60

// examDurationMinutes is the advertised duration of one mock exam.
const examDurationMinutes = 120

// ComposeModes partitions the final corpus into the three pedagogical views.
// Each view holds copies tagged with the mode name; the source questions are
// never mutated.
//
//   - revision: every question.
//   - entrainement: questions with a sufficiently detailed explanation.
//   - concours: every question, used as the exam sampling pool.
func ComposeModes(questions []*Question) map[string][]*Question {
	modes := map[string][]*Question{
		ModeRevision:     make([]*Question, 0, len(questions)),
		ModeEntrainement: {},
		ModeConcours:     make([]*Question, 0, len(questions)),
	}

	for _, q := range questions {
		rev := q.Clone()
		rev.Mode = ModeRevision
		modes[ModeRevision] = append(modes[ModeRevision], rev)

		if len(q.Explanation) >= minEntrainementExplanation {
			ent := q.Clone()
			ent.Mode = ModeEntrainement
			modes[ModeEntrainement] = append(modes[ModeEntrainement], ent)
		}

		con := q.Clone()
		con.Mode = ModeConcours
		modes[ModeConcours] = append(modes[ModeConcours], con)
	}
	return modes
}

// ExamConfig describes one mock exam to assemble: a title and a weight map
// over modules. An empty weight map means "use the profile weights".
type ExamConfig struct {
	ExamID        string             `json:"exam_id"`
	Title         string             `json:"title"`
	Description   string             `json:"description,omitempty"`
	ModuleWeights map[string]float64 `json:"module_weights"`
}

// DefaultExamConfigs are the six themed mock exams shipped with the
// pipeline. The last one has no weights of its own and falls back to the
// profile weights.
var DefaultExamConfigs = []ExamConfig{
	{
		ExamID:      "exam_01_physio_pharma",
		Title:       "Examen Blanc 1 : Physiologie & Pharmacologie",
		Description: "Bases physiologie, respiratoire, cardio, pharmacologie générale",
		ModuleWeights: map[string]float64{
			"bases_physio": 0.15, "respiratoire": 0.20, "cardio": 0.25,
			"pharma_generaux": 0.20, "pharma_opioides": 0.20,
		},
	},
	{
		ExamID:      "exam_02_cardio_rea",
		Title:       "Examen Blanc 2 : Cardio & Réanimation",
		Description: "Hémodynamique, choc, réanimation, monitorage",
		ModuleWeights: map[string]float64{
			"cardio": 0.40, "reanimation": 0.30, "monitorage": 0.15, "transfusion": 0.15,
		},
	},
	{
		ExamID:      "exam_03_resp_vent",
		Title:       "Examen Blanc 3 : Respiratoire & Ventilation",
		Description: "Physiologie respiratoire, ventilation, voies aériennes, monitorage",
		ModuleWeights: map[string]float64{
			"respiratoire": 0.40, "ventilation": 0.30, "monitorage": 0.15, "reanimation": 0.15,
		},
	},
	{
		ExamID:      "exam_04_pharmaco",
		Title:       "Examen Blanc 4 : Pharmacologie Complète",
		Description: "Tous les médicaments : généraux, locaux, opioïdes, curares",
		ModuleWeights: map[string]float64{
			"pharma_generaux": 0.25, "pharma_locaux": 0.25,
			"pharma_opioides": 0.25, "pharma_curares": 0.25,
		},
	},
	{
		ExamID:      "exam_05_alr_douleur",
		Title:       "Examen Blanc 5 : ALR & Douleur",
		Description: "Anesthésie locorégionale, douleur, transfusion",
		ModuleWeights: map[string]float64{
			"alr": 0.40, "douleur": 0.30, "pharma_locaux": 0.20, "transfusion": 0.10,
		},
	},
	{
		ExamID:        "exam_06_mixte",
		Title:         "Examen Blanc 6 : Mixte Complet",
		Description:   "Tous modules, pondération selon profil",
		ModuleWeights: nil,
	},
}

// BuildExam assembles one mock exam from the concours pool: per-module
// quotas from the normalized weight map, each quota sub-split by the
// difficulty ratio, sampling without replacement capped by availability,
// uniform backfill of any shortfall from the rest of the pool, and a final
// shuffle. The rng parameter makes assembly reproducible under a fixed seed.
func BuildExam(cfg ExamConfig, pool []*Question, fallbackWeights map[string]float64, split DifficultySplit, rng *rand.Rand) (*Exam, error) {
	weights := cfg.ModuleWeights
	if len(weights) == 0 {
		weights = fallbackWeights
	}
	if len(weights) == 0 {
		return nil, fmt.Errorf("exam %s has no module weights and no fallback profile", cfg.ExamID)
	}
	weights = normalizeWeights(weights)

	// Bucket the pool by (module, difficulty).
	byModule := make(map[string]map[string][]*Question)
	for _, q := range pool {
		module := q.Module()
		if byModule[module] == nil {
			byModule[module] = map[string][]*Question{}
		}
		difficulty := q.Difficulty
		if difficulty == "" {
			difficulty = DifficultyMedium
		}
		byModule[module][difficulty] = append(byModule[module][difficulty], q)
	}

	selected := make([]*Question, 0, QuestionsPerExam)
	picked := make(map[*Question]bool)

	for _, module := range sortedWeightKeys(weights) {
		buckets, ok := byModule[module]
		if !ok {
			continue
		}

		quota := int(float64(QuestionsPerExam) * weights[module])
		nEasy := int(float64(quota) * split.Easy)
		nMedium := int(float64(quota) * split.Medium)
		nHard := int(float64(quota) * split.Hard)
		// Integer truncation shortfall goes to medium.
		nMedium += quota - (nEasy + nMedium + nHard)

		for _, want := range []struct {
			difficulty string
			n          int
		}{
			{DifficultyEasy, nEasy},
			{DifficultyMedium, nMedium},
			{DifficultyHard, nHard},
		} {
			for _, q := range sampleWithoutReplacement(buckets[want.difficulty], want.n, rng) {
				selected = append(selected, q)
				picked[q] = true
			}
		}
	}

	// Backfill any shortfall uniformly from the remaining pool.
	if len(selected) < QuestionsPerExam {
		var remaining []*Question
		for _, q := range pool {
			if !picked[q] {
				remaining = append(remaining, q)
			}
		}
		need := QuestionsPerExam - len(selected)
		selected = append(selected, sampleWithoutReplacement(remaining, need, rng)...)
	}

	rng.Shuffle(len(selected), func(i, j int) {
		selected[i], selected[j] = selected[j], selected[i]
	})
	if len(selected) > QuestionsPerExam {
		selected = selected[:QuestionsPerExam]
	}

	exam := &Exam{
		ExamID:          cfg.ExamID,
		Title:           cfg.Title,
		Description:     cfg.Description,
		DurationMinutes: examDurationMinutes,
		QuestionCount:   len(selected),
		ModuleWeights:   weights,
		Questions:       selected,
	}
	if exam.ExamID == "" {
		exam.ExamID = uuid.NewString()
	}

	exam.QuestionIDs = make([]string, len(selected))
	counts := map[string]int{}
	for i, q := range selected {
		exam.QuestionIDs[i] = q.Key()
		counts[q.Difficulty]++
	}
	exam.DifficultyShare = map[string]float64{}
	if len(selected) > 0 {
		for _, d := range []string{DifficultyEasy, DifficultyMedium, DifficultyHard} {
			exam.DifficultyShare[d] = round4(float64(counts[d]) / float64(len(selected)))
		}
	}
	return exam, nil
}

// sampleWithoutReplacement draws up to n elements from pool, capped by
// availability.
func sampleWithoutReplacement(pool []*Question, n int, rng *rand.Rand) []*Question {
	if n <= 0 || len(pool) == 0 {
		return nil
	}
	if n > len(pool) {
		n = len(pool)
	}
	indices := rng.Perm(len(pool))[:n]
	sort.Ints(indices)
	out := make([]*Question, n)
	for i, idx := range indices {
		out[i] = pool[idx]
	}
	return out
}

func normalizeWeights(weights map[string]float64) map[string]float64 {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	if total == 0 {
		return weights
	}
	normalized := make(map[string]float64, len(weights))
	for module, w := range weights {
		normalized[module] = w / total
	}
	return normalized
}

func sortedWeightKeys(weights map[string]float64) []string {
	keys := make([]string, 0, len(weights))
	for k := range weights {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
