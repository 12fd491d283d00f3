package qcmpipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// QuestionMaker generates QCM candidates from source chunks through the chat
// completions API, forcing a submit_questions tool call so the response is
// structured JSON rather than free text.
type QuestionMaker struct {
	client *openai.Client
	model  string
	retry  RetryPolicy
}

// NewQuestionMaker creates a question maker. An empty model defaults to
// GPT-4o.
func NewQuestionMaker(apiKey, model string) *QuestionMaker {
	if model == "" {
		model = openai.GPT4o
	}
	return &QuestionMaker{
		client: openai.NewClient(apiKey),
		model:  model,
		retry:  DefaultRetryPolicy,
	}
}

const generatorSystemPrompt = "Tu es un expert IADE (Infirmier Anesthésiste Diplômé d'État). " +
	"Génère des QCM factuels UNIQUEMENT à partir du contexte fourni. " +
	"Chaque question a exactement 4 options dont une seule correcte, " +
	"reprend les termes exacts du cours, et cite le contexte source."

// GenerateForChunk asks the model for perChunk candidates grounded in the
// given chunk, tagged with the module's expected keywords. Candidates that
// fail the structural format check are dropped at the parse boundary; the
// survivors come back enriched with provenance. The call is retried under
// the maker's retry policy; exhausting it returns an error and the caller
// records a failed unit of work.
func (qm *QuestionMaker) GenerateForChunk(ctx context.Context, moduleID string, chunk *Chunk, keywords []string, perChunk int) ([]*Question, error) {
	prompt := qm.buildPrompt(moduleID, chunk, keywords, perChunk)

	var questions []*Question
	err := qm.retry.Do(ctx, func() error {
		generated, err := qm.requestQuestions(ctx, prompt)
		if err != nil {
			return err
		}
		if len(generated) == 0 {
			return fmt.Errorf("no valid candidates for chunk %s", chunk.ChunkID)
		}
		questions = generated
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, q := range questions {
		q.ID = generateQuestionID()
		q.ModuleID = moduleID
		q.ChunkID = chunk.ChunkID
		q.SourcePDF = chunk.SourcePDF
		q.Page = chunk.PageStart
		if q.SourceContext == "" {
			q.SourceContext = excerpt(chunk.Text, 200)
		}
	}
	return questions, nil
}

func (qm *QuestionMaker) requestQuestions(ctx context.Context, prompt string) ([]*Question, error) {
	resp, err := qm.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: qm.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: generatorSystemPrompt,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Tools: []openai.Tool{
				{
					Type: openai.ToolTypeFunction,
					Function: &openai.FunctionDefinition{
						Name:        "submit_questions",
						Description: "Submit generated QCM candidates",
						Parameters: map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"questions": map[string]interface{}{
									"type": "array",
									"items": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"text": map[string]interface{}{
												"type":        "string",
												"description": "The question stem, ending with a question mark",
											},
											"options": map[string]interface{}{
												"type": "array",
												"items": map[string]interface{}{
													"type": "string",
												},
												"description": "Exactly 4 distinct multiple choice options",
											},
											"correctAnswer": map[string]interface{}{
												"type":        "integer",
												"description": "0-based index of the correct answer",
											},
											"explanation": map[string]interface{}{
												"type":        "string",
												"description": "Detailed explanation citing the source text",
											},
											"source_context": map[string]interface{}{
												"type":        "string",
												"description": "1-2 sentence quote from the source chunk",
											},
										},
										"required": []string{"text", "options", "correctAnswer", "explanation"},
									},
								},
							},
							"required": []string{"questions"},
						},
					},
				},
			},
			ToolChoice: openai.ToolChoice{
				Type: openai.ToolTypeFunction,
				Function: openai.ToolFunction{
					Name: "submit_questions",
				},
			},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate questions: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from model")
	}
	choice := resp.Choices[0]
	if len(choice.Message.ToolCalls) == 0 {
		return nil, fmt.Errorf("no tool calls in response")
	}
	toolCall := choice.Message.ToolCalls[0]
	if toolCall.Function.Name != "submit_questions" {
		return nil, fmt.Errorf("unexpected tool call: %s", toolCall.Function.Name)
	}

	var toolArgs struct {
		Questions []*Question `json:"questions"`
	}
	if err := json.Unmarshal([]byte(toolCall.Function.Arguments), &toolArgs); err != nil {
		return nil, fmt.Errorf("failed to parse tool arguments: %w", err)
	}

	valid := make([]*Question, 0, len(toolArgs.Questions))
	for _, q := range toolArgs.Questions {
		if err := q.ValidateFormat(); err != nil {
			Log.Debug().Err(err).Msg("dropping malformed candidate")
			continue
		}
		valid = append(valid, q)
	}
	return valid, nil
}

func (qm *QuestionMaker) buildPrompt(moduleID string, chunk *Chunk, keywords []string, perChunk int) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("[MODULE] : %s\n\n", strings.ReplaceAll(moduleID, "_", " ")))
	sb.WriteString("[CONTEXTE SOURCE] :\n")
	sb.WriteString(chunk.Text)
	sb.WriteString("\n\n")

	if len(keywords) > 0 {
		limit := len(keywords)
		if limit > 10 {
			limit = 10
		}
		sb.WriteString(fmt.Sprintf("[MOTS-CLÉS ATTENDUS] : %s\n\n", strings.Join(keywords[:limit], ", ")))
	}

	sb.WriteString("Consignes :\n")
	sb.WriteString("- Chaque question a exactement 4 options distinctes, une seule correcte\n")
	sb.WriteString("- Les 3 options incorrectes doivent être plausibles mais fausses\n")
	sb.WriteString("- Reprends les termes exacts du contexte (fidélité lexicale)\n")
	sb.WriteString("- Pas d'ambiguïté, pas d'extrapolation au-delà du contexte\n")
	sb.WriteString("- Explication détaillée citant le cours, 3-5 lignes\n")
	sb.WriteString(fmt.Sprintf("\nGénère %d QCM basés sur ce contexte via submit_questions.", perChunk))

	return sb.String()
}

// excerpt truncates text to at most n bytes on a rune boundary.
func excerpt(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}

const questionIDCharset = "abcdefghijklmnopqrstuvwxyz0123456789"

func generateQuestionID() string {
	b := make([]byte, 8)
	for i := range b {
		b[i] = questionIDCharset[rand.Intn(len(questionIDCharset))]
	}
	return string(b)
}
