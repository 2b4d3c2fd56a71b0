// Package content generates bilingual editorial content for prediction markets.
package content

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ssupercloud/nextdawn/internal/grok"
	"github.com/ssupercloud/nextdawn/internal/imagery"
	"github.com/ssupercloud/nextdawn/internal/metrics"
	"github.com/ssupercloud/nextdawn/internal/models"
)

// DefaultMinStoryLength is the story length, in characters, the model is asked to exceed.
const DefaultMinStoryLength = 50

// Degraded content returned when the LLM cannot be reached.
const (
	UnavailableHeadlineZH = "系统错误"
	UnavailableStoryEN    = "Our analysis desk is temporarily unavailable. Live market odds are shown above; a full report will follow shortly."
	UnavailableStoryZH    = "分析服务暂时不可用。上方为实时市场赔率，完整报道稍后发布。"
)

// Request holds the market inputs for one generation.
type Request struct {
	MarketID       string
	Title          string
	Category       string
	Summary        string
	Probability    float64
	TargetDate     string
	ForcedHeadline string
}

// Result is the generated content tagged with the path that produced it.
type Result struct {
	Content     models.GeneratedContent
	Outcome     Outcome
	ImagePrompt string
}

// Config holds generation parameters.
type Config struct {
	MinStoryLength int
	Temperature    float32
	MaxTokens      int
}

// Generator turns market context into GeneratedContent through one LLM call.
type Generator struct {
	llm        Completer
	images     *imagery.Synthesizer
	background BackgroundSource
	config     Config
}

// NewGenerator creates a new content generator. llm and background may be nil.
func NewGenerator(llm Completer, images *imagery.Synthesizer, background BackgroundSource, cfg Config) *Generator {
	if cfg.MinStoryLength <= 0 {
		cfg.MinStoryLength = DefaultMinStoryLength
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.4
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1800
	}
	if images == nil {
		images = imagery.NewSynthesizer(imagery.Config{})
	}

	return &Generator{
		llm:        llm,
		images:     images,
		background: background,
		config:     cfg,
	}
}

// Generate produces content for a market. It never fails: a transport error
// yields degraded content and malformed output is repaired or salvaged.
func (g *Generator) Generate(ctx context.Context, req Request) Result {
	start := time.Now()

	if g.llm == nil {
		result := g.unavailable(req)
		metrics.RecordGeneration(string(result.Outcome), time.Since(start))
		return result
	}

	resp, err := g.llm.Chat(ctx, grok.ChatRequest{
		SystemPrompt: g.systemPrompt(),
		UserPrompt:   g.userPrompt(ctx, req),
		Temperature:  g.config.Temperature,
		MaxTokens:    g.config.MaxTokens,
		JSONMode:     true,
	})
	if err != nil {
		log.Error().Err(err).Str("market_id", req.MarketID).Msg("Story generation failed")
		result := g.unavailable(req)
		metrics.RecordGeneration(string(result.Outcome), time.Since(start))
		return result
	}

	payload, outcome := ParsePayload(resp.Content, req.Title)
	if req.ForcedHeadline != "" {
		payload.Headline = req.ForcedHeadline
	}

	imagePrompt := strings.TrimSpace(payload.ImagePrompt)
	if imagePrompt == "" {
		imagePrompt = req.Title
	}

	result := Result{
		Content: models.GeneratedContent{
			Headline:          payload.Headline,
			Story:             payload.Story,
			HeadlineLocalized: payload.HeadlineCN,
			StoryLocalized:    payload.StoryCN,
			ImageURL:          g.images.URL(imagePrompt),
			Impact:            models.Impact(payload.Impact),
		},
		Outcome:     outcome,
		ImagePrompt: imagePrompt,
	}

	elapsed := time.Since(start)
	metrics.RecordGeneration(string(outcome), elapsed)

	event := log.Info()
	if outcome == OutcomeSalvaged {
		event = log.Warn()
	}
	event.
		Str("market_id", req.MarketID).
		Str("outcome", string(outcome)).
		Str("finish_reason", resp.FinishReason).
		Int("tokens", resp.TokensUsed.TotalTokens).
		Dur("duration", elapsed).
		Msg("Story generated")

	return result
}

// unavailable returns the fixed degraded content.
func (g *Generator) unavailable(req Request) Result {
	headline := req.ForcedHeadline
	if headline == "" {
		headline = req.Title
	}

	return Result{
		Content: models.GeneratedContent{
			Headline:          headline,
			Story:             UnavailableStoryEN,
			HeadlineLocalized: UnavailableHeadlineZH,
			StoryLocalized:    UnavailableStoryZH,
			ImageURL:          g.images.FallbackURL(),
			Impact:            models.ImpactLow,
		},
		Outcome: OutcomeUnavailable,
	}
}

func (g *Generator) systemPrompt() string {
	return fmt.Sprintf(`You are a senior analyst at a newspaper that covers prediction markets.

EDITORIAL STANDARDS:
1. OBJECTIVE ANALYSIS: Report the current standing of the market. Never state the eventual outcome as settled fact; the market has not resolved.
2. INTEGRATE DATA: Weave the probabilities into prose (e.g., "traders price a 62.5%% chance").
3. EXPLAIN THE STAKES: Answer "so what?" for a sophisticated reader.
4. SHORT & DIRECT: Short sentences. One idea per sentence.

STORY STRUCTURE:
- LEAD: The current standing of the market
- LEADING OPTION: Why the favorite is ahead and how firm that lead is
- STAKES: What depends on the result
- BACKGROUND: Relevant recent developments

LENGTH: "story" must be at least three paragraphs and longer than %d characters.

TRANSLATION: "headline_cn" and "story_cn" are Simplified Chinese versions written in idiomatic, professional financial-press style. Do not translate word for word.

Respond ONLY with valid JSON. Escape newlines inside strings as \n.`, g.config.MinStoryLength)
}

func (g *Generator) userPrompt(ctx context.Context, req Request) string {
	targetDate := req.TargetDate
	if targetDate == "" {
		targetDate = "Not specified"
	}

	headlineRule := "Sharp, active-voice headline. Max 90 chars."
	if req.ForcedHeadline != "" {
		headlineRule = fmt.Sprintf("Use exactly: %s", req.ForcedHeadline)
	}

	var b strings.Builder
	fmt.Fprintf(&b, `Write a news analysis of this prediction market.

MARKET DATA
Title: %s
Current standing: %s
Leading probability: %.1f%%
Resolution date: %s
`, req.Title, req.Summary, req.Probability*100, targetDate)

	if bg := g.fetchBackground(ctx, req); bg != "" {
		fmt.Fprintf(&b, "\nRELEVANT BACKGROUND\n%s\n", bg)
	}

	fmt.Fprintf(&b, `
Generate JSON with this structure:
{
  "headline": "%s",
  "story": "The analysis, paragraphs separated by \n\n",
  "headline_cn": "Chinese headline",
  "story_cn": "Chinese story",
  "image_prompt": "One sentence describing an editorial illustration for this story, no text in the image",
  "impact": "CRITICAL|HIGH|MEDIUM|LOW"
}`, headlineRule)

	return b.String()
}

func (g *Generator) fetchBackground(ctx context.Context, req Request) string {
	if g.background == nil {
		return ""
	}

	bg, err := g.background.Background(ctx, req.Title, req.Category)
	if err != nil {
		log.Warn().Err(err).Str("market_id", req.MarketID).Msg("Failed to fetch background")
		return ""
	}
	return bg
}
