package processing

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/Surya-blippi/Livio-sub001/models"
	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// ScenePlan is the structured output for script generation: the narration
// split into ordered scenes whose texts, space-joined, are the full script.
type ScenePlan struct {
	Scenes []PlannedScene `json:"scenes" jsonschema_description:"Ordered scenes that together narrate the whole video. Aim for 3-6 scenes."`
}

// PlannedScene is a single scene in the generated plan.
type PlannedScene struct {
	Text     string   `json:"text" jsonschema_description:"The exact narration spoken during this scene. Scene texts concatenated must read as one continuous script."`
	Type     string   `json:"type" jsonschema_description:"Either 'face' for a talking-avatar scene or 'asset' for a still-image scene."`
	Keywords []string `json:"keywords" jsonschema_description:"2-4 search keywords describing the visual for this scene."`
}

// GenerateSchema generates a JSON schema for structured outputs.
func GenerateSchema[T any]() interface{} {
	// Structured Outputs uses a subset of JSON schema
	// These flags are necessary to comply with the subset
	reflector := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	schema := reflector.Reflect(v)
	return schema
}

var scenePlanSchema = GenerateSchema[ScenePlan]()

// GeneratePlan asks the LLM for a narration script already split into
// scenes. Used when a render request carries only a topic; requests with
// explicit scenes skip this entirely.
func GeneratePlan(ctx context.Context, topic string) (string, []models.Scene, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return "", nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}

	client := openai.NewClient(option.WithAPIKey(apiKey))

	prompt := fmt.Sprintf(`You are writing the voiceover for a short vertical social-media video about: "%s".
Write an engaging 60-90 second narration and split it into 3 to 6 scenes.
Each scene is either a 'face' scene (the creator's avatar speaks to camera) or an 'asset' scene (a still image illustrates the narration).
The scene texts concatenated in order must read as one continuous script with no gaps or repeats.
For each scene also provide 2-4 visual search keywords.`, topic)

	plan, err := getStructuredResponse[ScenePlan](ctx, client, prompt, scenePlanSchema)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate scene plan: %w", err)
	}

	if len(plan.Scenes) == 0 {
		return "", nil, fmt.Errorf("LLM returned no scenes")
	}

	scenes := make([]models.Scene, 0, len(plan.Scenes))
	texts := make([]string, 0, len(plan.Scenes))
	for _, s := range plan.Scenes {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		sceneType := s.Type
		if sceneType != models.SceneTypeFace {
			sceneType = models.SceneTypeAsset
		}
		scenes = append(scenes, models.Scene{
			Text:     text,
			Type:     sceneType,
			Keywords: s.Keywords,
		})
		texts = append(texts, text)
	}
	if len(scenes) == 0 {
		return "", nil, fmt.Errorf("LLM returned only empty scenes")
	}

	return strings.Join(texts, " "), scenes, nil
}

// getStructuredResponse is a helper function to call the OpenAI API with JSON schema enforcement
func getStructuredResponse[T any](ctx context.Context, client openai.Client, prompt string, schema interface{}) (*T, error) {
	schemaParam := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        "structured_response",
		Description: openai.String("Structured data response"),
		Schema:      schema,
		Strict:      openai.Bool(true),
	}

	chatCompletion, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model: openai.ChatModelGPT4oMini,
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: schemaParam,
			},
		},
	})

	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(chatCompletion.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	rawResponse := chatCompletion.Choices[0].Message.Content

	var structuredResponse T
	if err := json.Unmarshal([]byte(rawResponse), &structuredResponse); err != nil {
		return nil, fmt.Errorf("failed to parse OpenAI JSON response: %w\nRaw content: %s", err, rawResponse)
	}

	return &structuredResponse, nil
}
