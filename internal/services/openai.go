package services

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"
)

type openAIProvider struct {
	client    *openai.Client
	modelName string
	logger    *zap.Logger
}

func NewOpenAIProvider(apiKey, modelName string, logger *zap.Logger) VisionProvider {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	if modelName == "" {
		modelName = string(openai.ChatModelGPT4oMini)
	}
	return &openAIProvider{
		client:    &client,
		modelName: modelName,
		logger:    logger,
	}
}

// Name implements VisionProvider.
func (o *openAIProvider) Name() string {
	return "openai"
}

// Analyze implements VisionProvider.
func (o *openAIProvider) Analyze(ctx context.Context, req VisionRequest) (string, error) {
	content := make([]openai.ChatCompletionContentPartUnionParam, 0, len(req.Images)+1)
	content = append(content, openai.TextContentPart(req.Prompt))
	for _, image := range req.Images {
		content = append(content, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
			URL: image.DataURL(),
		}))
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(content))

	params := openai.ChatCompletionNewParams{
		Model:               openai.ChatModel(o.modelName),
		Messages:            messages,
		MaxCompletionTokens: openai.Int(int64(req.MaxTokens)),
		Temperature:         openai.Float(float64(req.Temperature)),
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in OpenAI response")
	}

	text := resp.Choices[0].Message.Content
	if text == "" {
		return "", fmt.Errorf("empty message content (finish reason: %s)", resp.Choices[0].FinishReason)
	}

	o.logger.Debug("OpenAI response received",
		zap.String("model", o.modelName),
		zap.Int("length", len(text)),
		zap.Int64("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int64("completion_tokens", resp.Usage.CompletionTokens),
	)

	return text, nil
}
