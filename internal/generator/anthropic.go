package generator

import (
	"context"
	"errors"
	"fmt"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ngoinfo/copilot/internal/config"
	"github.com/rotisserie/eris"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type ClientParam struct {
	fx.In

	Log *zap.Logger
	Cfg config.Config
}

type anthropicClient struct {
	log       *zap.Logger
	client    sdk.Client
	limiter   *rate.Limiter
	model     string
	maxTokens int64
	timeout   time.Duration
}

// NewClient builds the anthropic-backed generator. Requests are throttled to
// the configured requests-per-minute before they leave the process so a burst
// of generations degrades to queueing instead of upstream 429s.
func NewClient(p ClientParam) Client {
	rpm := p.Cfg.GenerationRPM
	if rpm <= 0 {
		rpm = 60
	}
	return &anthropicClient{
		log:       p.Log.Named("generator.anthropic"),
		client:    sdk.NewClient(option.WithAPIKey(p.Cfg.AnthropicAPIKey)),
		limiter:   rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 1),
		model:     p.Cfg.GenerationModel,
		maxTokens: int64(p.Cfg.GenerationMaxTokens),
		timeout:   p.Cfg.GenerationTimeout,
	}
}

func (c *anthropicClient) Generate(ctx context.Context, prompt string) (*Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(errors.Join(ErrGeneration, err), "generator: limiter wait")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	msg, err := c.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return nil, eris.Wrap(errors.Join(ErrGeneration, err), "generator: create message")
	}

	var content string
	for _, block := range msg.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}
	if content == "" {
		return nil, eris.Wrap(ErrGeneration, fmt.Sprintf("generator: empty response, stop_reason=%s", msg.StopReason))
	}

	c.log.Info("proposal draft generated",
		zap.String("model", string(msg.Model)),
		zap.Int64("input_tokens", msg.Usage.InputTokens),
		zap.Int64("output_tokens", msg.Usage.OutputTokens),
	)

	return &Result{
		Content:          content,
		Title:            extractTitle(content),
		ExecutiveSummary: extractExecutiveSummary(content),
		Model:            string(msg.Model),
		InputTokens:      msg.Usage.InputTokens,
		OutputTokens:     msg.Usage.OutputTokens,
	}, nil
}
