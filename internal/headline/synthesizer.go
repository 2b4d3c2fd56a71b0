// Package headline picks stable, human-readable headlines for market cards.
//
// Selection is a pure function of the market identifier and its normalized
// context, so a card keeps the same headline across refreshes and the
// generated story can be asked to reuse it.
package headline

import (
	"fmt"
	"strings"
	"unicode/utf16"

	"github.com/ssupercloud/nextdawn/internal/models"
)

// Lang selects the template set.
type Lang string

const (
	English Lang = "en"
	Chinese Lang = "zh"
)

// Confidence bucket boundaries.
const (
	HighConfidence = 0.75
	MidConfidence  = 0.50
)

// Bucket names a confidence range.
type Bucket string

const (
	BucketBinary Bucket = "binary"
	BucketHigh   Bucket = "high"
	BucketMid    Bucket = "mid"
	BucketLow    Bucket = "low"
)

// ParseLang maps a request parameter to a Lang. Anything unrecognized is English.
func ParseLang(s string) Lang {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "zh", "cn", "zh-cn", "zh_cn", "zh-hans":
		return Chinese
	default:
		return English
	}
}

// Seed returns the sum of the UTF-16 code units of the market identifier, so
// characters outside the BMP contribute both surrogate halves.
func Seed(marketID string) int {
	seed := 0
	for _, u := range utf16.Encode([]rune(marketID)) {
		seed += int(u)
	}
	return seed
}

// BucketFor returns the bucket used for the given context.
func BucketFor(ctx models.MarketContext) Bucket {
	switch {
	case ctx.TopOutcome == "Yes" || ctx.TopOutcome == "No":
		return BucketBinary
	case ctx.Probability > HighConfidence:
		return BucketHigh
	case ctx.Probability > MidConfidence:
		return BucketMid
	default:
		return BucketLow
	}
}

// Synthesize returns the headline for a market in the requested language.
func Synthesize(marketID, title string, ctx models.MarketContext, lang Lang) string {
	set := english
	if lang == Chinese {
		set = chinese
	}

	var template string
	switch BucketFor(ctx) {
	case BucketBinary:
		template = set.binaryYes
		if ctx.TopOutcome == "No" {
			template = set.binaryNo
		}
	case BucketHigh:
		template = pick(set.high, marketID)
	case BucketMid:
		template = pick(set.mid, marketID)
	default:
		template = pick(set.low, marketID)
	}

	return render(template, title, ctx)
}

func pick(pool []string, marketID string) string {
	return pool[Seed(marketID)%len(pool)]
}

func render(template, title string, ctx models.MarketContext) string {
	r := strings.NewReplacer(
		"{outcome}", ctx.TopOutcome,
		"{title}", strings.TrimSpace(title),
		"{pct}", fmt.Sprintf("%.0f%%", ctx.Probability*100),
	)
	return r.Replace(template)
}
