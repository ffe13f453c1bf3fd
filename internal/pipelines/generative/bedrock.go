package generative

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/JaimeStill/addrsplit/internal/pipelines"
)

const anthropicVersion = "bedrock-2023-05-31"

var errEmptyCompletion = errors.New("empty completion")

// Client is the slice of the Bedrock runtime API the adapter uses.
type Client interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

type completion struct {
	text         string
	inputTokens  int
	outputTokens int
}

type anthropicContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicMessage struct {
	Role    string             `json:"role"`
	Content []anthropicContent `json:"content"`
}

type anthropicRequest struct {
	AnthropicVersion string             `json:"anthropic_version"`
	MaxTokens        int32              `json:"max_tokens"`
	Temperature      float64            `json:"temperature"`
	Messages         []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content    []anthropicContent `json:"content"`
	Completion string             `json:"completion"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// complete asks the model for a completion through Converse. Anthropic
// models that fail on Converse are retried once through InvokeModel.
func (a *Adapter) complete(ctx context.Context, modelID, prompt string) (completion, error) {
	c, err := a.converse(ctx, modelID, prompt)
	if err == nil {
		return c, nil
	}
	if ctx.Err() != nil || !strings.HasPrefix(modelID, "anthropic.") {
		return completion{}, classify(err)
	}

	a.logger.Warn("converse failed, falling back to invoke model", "model_id", modelID, "error", err)
	c, err = a.invoke(ctx, modelID, prompt)
	if err != nil {
		return completion{}, classify(err)
	}
	return c, nil
}

func (a *Adapter) converse(ctx context.Context, modelID, prompt string) (completion, error) {
	out, err := a.client.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId: aws.String(modelID),
		Messages: []types.Message{{
			Role:    types.ConversationRoleUser,
			Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: prompt}},
		}},
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens:   aws.Int32(a.maxTokens),
			Temperature: aws.Float32(0),
		},
	})
	if err != nil {
		return completion{}, err
	}

	var c completion
	if msg, ok := out.Output.(*types.ConverseOutputMemberMessage); ok {
		for _, block := range msg.Value.Content {
			if text, ok := block.(*types.ContentBlockMemberText); ok {
				c.text += text.Value
			}
		}
	}
	if strings.TrimSpace(c.text) == "" {
		return completion{}, errEmptyCompletion
	}
	if out.Usage != nil {
		c.inputTokens = int(aws.ToInt32(out.Usage.InputTokens))
		c.outputTokens = int(aws.ToInt32(out.Usage.OutputTokens))
	}
	return c, nil
}

func (a *Adapter) invoke(ctx context.Context, modelID, prompt string) (completion, error) {
	body, err := json.Marshal(anthropicRequest{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        a.maxTokens,
		Temperature:      0,
		Messages: []anthropicMessage{{
			Role:    "user",
			Content: []anthropicContent{{Type: "text", Text: prompt}},
		}},
	})
	if err != nil {
		return completion{}, fmt.Errorf("marshal request: %w", err)
	}

	out, err := a.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return completion{}, err
	}

	var resp anthropicResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return completion{text: string(out.Body)}, nil
	}

	c := completion{
		inputTokens:  resp.Usage.InputTokens,
		outputTokens: resp.Usage.OutputTokens,
	}
	switch {
	case len(resp.Content) > 0:
		c.text = resp.Content[0].Text
	case resp.Completion != "":
		c.text = resp.Completion
	default:
		c.text = string(out.Body)
	}
	return c, nil
}

func classify(err error) error {
	var (
		throttled *types.ThrottlingException
		quota     *types.ServiceQuotaExceededException
		denied    *types.AccessDeniedException
		missing   *types.ResourceNotFoundException
	)
	switch {
	case errors.Is(err, errEmptyCompletion):
		return fmt.Errorf("%w: %w", pipelines.ErrInvalidOutput, err)
	case errors.As(err, &throttled), errors.As(err, &quota):
		return fmt.Errorf("%w: %w", pipelines.ErrThrottled, err)
	case errors.As(err, &denied), errors.As(err, &missing):
		return fmt.Errorf("%w: %w", pipelines.ErrMisconfigured, err)
	}
	return fmt.Errorf("bedrock: %w", err)
}
