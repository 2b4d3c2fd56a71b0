package headline

// Placeholders: {outcome} leading option, {title} market title, {pct} rounded probability.

// pools holds the phrasing templates per confidence bucket.
type pools struct {
	binaryYes string
	binaryNo  string
	high      []string
	mid       []string
	low       []string
}

var english = pools{
	binaryYes: "Odds favor 'Yes' for {title}",
	binaryNo:  "Market skeptical on {title}",
	high: []string{
		"{outcome} Clinches Commanding Lead in {title}",
		"{outcome} Dominates {title} at {pct}",
		"{outcome} Cements Front-Runner Status: {title}",
		"Decisive Edge for {outcome} in {title}",
		"{outcome} Pulls Away as {title} Odds Hit {pct}",
	},
	mid: []string{
		"{outcome} Takes Lead in {title}",
		"{outcome} Surges Ahead in {title}",
		"Momentum Builds for {outcome}: {title}",
		"{outcome} Gains Ground as {title} Tightens",
	},
	low: []string{
		"{outcome} Emerges as Favorite in {title}",
		"{outcome} Edges Ahead in Crowded {title} Field",
		"Narrow Edge for {outcome} in {title}",
		"{outcome} Holds Slim Lead: {title}",
	},
}

// chinese follows Chinese headline conventions rather than the English wording.
var chinese = pools{
	binaryYes: "“是”方占优：{title}",
	binaryNo:  "市场看淡：{title}",
	high: []string{
		"{outcome}锁定胜局：{title}",
		"{outcome}遥遥领先，{title}大局初定",
		"{title}：{outcome}一骑绝尘",
		"{outcome}稳坐头把交椅（{pct}）",
	},
	mid: []string{
		"{outcome}暂时领跑{title}",
		"{title}：{outcome}势头强劲",
		"{outcome}后来居上，{title}格局生变",
		"{outcome}占据上风：{title}",
	},
	low: []string{
		"{outcome}脱颖而出成热门：{title}",
		"{title}悬念未解，{outcome}略占优势",
		"{outcome}小幅领先：{title}",
		"群雄逐鹿，{outcome}暂居前列",
	},
}
