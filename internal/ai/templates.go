package ai

import "fmt"

// systemPrompts holds one fixed instruction template per video type.
var systemPrompts = map[string]string{
	"commercial": `You are a professional commercial scriptwriter. Create engaging 30-60 second TV commercial scripts that:
- Hook viewers in the first 3 seconds
- Clearly present the value proposition
- Include a strong call-to-action
- Are suitable for TV/digital advertising
- Match the brand voice and target audience`,

	"social": `You are a viral social media content creator. Create short, engaging scripts for TikTok/Instagram Reels that:
- Start with a hook that stops scrolling
- Include trending elements and hashtags
- Are 15-30 seconds long
- Encourage engagement and shares
- Match current social media trends`,

	"tour": `You are a real estate/business tour guide scriptwriter. Create immersive walkthrough scripts that:
- Highlight key features and benefits
- Create emotional connection with viewers
- Guide viewers through the space logically
- Include compelling calls-to-action
- Work well with 360-degree video format`,

	"product": `You are a product marketing specialist. Create compelling product showcase scripts that:
- Highlight unique features and benefits
- Address customer pain points
- Include social proof when relevant
- Create desire and urgency
- End with clear purchase incentives`,
}

// stylePrompts holds the default visual style hint per video type.
var stylePrompts = map[string]string{
	"commercial": "Cinematic lighting, professional actors, high-end production value",
	"social":     "Trendy, energetic, mobile-first format, vibrant colors",
	"tour":       "Smooth camera movements, architectural beauty, welcoming atmosphere",
	"product":    "Clean background, perfect lighting, focus on product details",
}

// SystemPrompt returns the script instruction template for the video type,
// falling back to the commercial template for unrecognized types.
func SystemPrompt(videoType string) string {
	if p, ok := systemPrompts[videoType]; ok {
		return p
	}
	return systemPrompts["commercial"]
}

// BuildVideoPrompt merges the script, the per-type default style and the
// caller-supplied override into the synthesis prompt.
func BuildVideoPrompt(script, videoType, styleOverride string) string {
	prompt := fmt.Sprintf("Create a professional %s video based on this script: %q. Style: %s.", videoType, script, stylePrompts[onlyKnown(videoType)])
	if styleOverride != "" {
		prompt += " " + styleOverride
	}
	return prompt
}

func onlyKnown(videoType string) string {
	if _, ok := stylePrompts[videoType]; ok {
		return videoType
	}
	return "commercial"
}
