package qcmpipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Refiner rewrites weak questions through the chat completions API without
// changing the tested notion or the correct answer. Refined questions keep
// their identity and provenance and re-enter the pipeline as an override
// stream for the consolidator, after re-scoring.
type Refiner struct {
	client *openai.Client
	model  string
	retry  RetryPolicy
}

// NewRefiner creates a refiner. An empty model defaults to GPT-4o.
func NewRefiner(apiKey, model string) *Refiner {
	if model == "" {
		model = openai.GPT4o
	}
	return &Refiner{
		client: openai.NewClient(apiKey),
		model:  model,
		retry:  DefaultRetryPolicy,
	}
}

// refinementContextThreshold marks questions whose context score is low
// enough to justify a rewrite even when the explanation looks fine.
const refinementContextThreshold = 0.70

// minExplanationLength marks placeholder or empty explanations.
const minExplanationLength = 30

// NeedsRefinement reports whether a validated question is a refinement
// candidate: a placeholder explanation, a placeholder source citation, or a
// weak anchoring to its source chunk.
func NeedsRefinement(q *Question) bool {
	explanation := strings.TrimSpace(q.Explanation)
	if len(explanation) < minExplanationLength || explanation == "Citation." || explanation == "..." {
		return true
	}
	sourceContext := strings.TrimSpace(q.SourceContext)
	if sourceContext == "" || sourceContext == "Citation." || sourceContext == "..." {
		return true
	}
	return q.ContextScore > 0 && q.ContextScore < refinementContextThreshold
}

// SelectForRefinement splits questions into those needing a rewrite and
// those kept as-is.
func SelectForRefinement(questions []*Question) (weak, kept []*Question) {
	for _, q := range questions {
		if NeedsRefinement(q) {
			weak = append(weak, q)
		} else {
			kept = append(kept, q)
		}
	}
	return weak, kept
}

const refinerSystemPrompt = "Tu es un formateur IADE. Améliore le QCM fourni sans changer " +
	"la notion médicale testée ni la bonne réponse. Reformule la question en français clair, " +
	"rends les 4 options plausibles, et rédige une explication précise et formative de 2-3 phrases. " +
	"Supprime tout placeholder."

// Refine rewrites one question. The returned question keeps the original's
// identity, provenance and scores (to be re-scored downstream) and carries
// the refined flag. On exhausted retries the original is returned unchanged
// with an error, so callers can fall back to keeping it.
func (r *Refiner) Refine(ctx context.Context, q *Question) (*Question, error) {
	original, err := json.Marshal(q)
	if err != nil {
		return q, fmt.Errorf("failed to marshal question %s: %w", q.Key(), err)
	}

	var refined *Question
	err = r.retry.Do(ctx, func() error {
		result, err := r.requestRefinement(ctx, string(original))
		if err != nil {
			return err
		}
		refined = result
		return nil
	})
	if err != nil {
		return q, err
	}

	// Carry identity, provenance and the correct answer over from the
	// original; the model only supplies wording.
	out := q.Clone()
	out.Text = refined.Text
	out.Options = refined.Options
	out.Explanation = refined.Explanation
	if refined.SourceContext != "" {
		out.SourceContext = refined.SourceContext
	}
	out.Refined = true

	if err := out.ValidateFormat(); err != nil {
		return q, fmt.Errorf("refined question %s is malformed: %w", q.Key(), err)
	}
	return out, nil
}

func (r *Refiner) requestRefinement(ctx context.Context, originalJSON string) (*Question, error) {
	resp, err := r.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: r.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: refinerSystemPrompt,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: "QCM actuel :\n" + originalJSON,
				},
			},
			Tools: []openai.Tool{
				{
					Type: openai.ToolTypeFunction,
					Function: &openai.FunctionDefinition{
						Name:        "submit_revision",
						Description: "Submit the improved QCM",
						Parameters: map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"text": map[string]interface{}{
									"type":        "string",
									"description": "The rewritten question stem",
								},
								"options": map[string]interface{}{
									"type": "array",
									"items": map[string]interface{}{
										"type": "string",
									},
									"description": "Exactly 4 distinct options, correct answer at the same index as the original",
								},
								"explanation": map[string]interface{}{
									"type":        "string",
									"description": "Rewritten explanation, 2-3 precise sentences",
								},
								"source_context": map[string]interface{}{
									"type":        "string",
									"description": "Source citation, cleaned of placeholders",
								},
							},
							"required": []string{"text", "options", "explanation"},
						},
					},
				},
			},
			ToolChoice: openai.ToolChoice{
				Type: openai.ToolTypeFunction,
				Function: openai.ToolFunction{
					Name: "submit_revision",
				},
			},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to refine question: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from model")
	}
	choice := resp.Choices[0]
	if len(choice.Message.ToolCalls) == 0 {
		return nil, fmt.Errorf("no tool calls in response")
	}
	toolCall := choice.Message.ToolCalls[0]
	if toolCall.Function.Name != "submit_revision" {
		return nil, fmt.Errorf("unexpected tool call: %s", toolCall.Function.Name)
	}

	var refined Question
	if err := json.Unmarshal([]byte(toolCall.Function.Arguments), &refined); err != nil {
		return nil, fmt.Errorf("failed to parse tool arguments: %w", err)
	}
	return &refined, nil
}

// RefineAll rewrites every selected question, falling back to the original
// when a rewrite fails or comes back malformed. Returns the outputs in input
// order plus the number of successful rewrites.
func (r *Refiner) RefineAll(ctx context.Context, questions []*Question) ([]*Question, int) {
	out := make([]*Question, 0, len(questions))
	refined := 0
	for _, q := range questions {
		result, err := r.Refine(ctx, q)
		if err != nil {
			Log.Warn().Err(err).Str("question", q.Key()).Msg("keeping original question")
		} else if result.Refined {
			refined++
		}
		out = append(out, result)
	}
	return out, refined
}
