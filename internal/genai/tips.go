package genai

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

var listMarker = regexp.MustCompile(`^(?:[-•*]|\d+[.)])\s*`)

const tipsSystemPrompt = "You are a friendly wellbeing coach for teenagers. " +
	"Answer with short practical tips, one per line, without numbering or introductions."

// topicPrompts maps tip topics to what the model is asked about.
var topicPrompts = map[string]string{
	"body":        "staying physically healthy: water, sleep and movement",
	"soft_skills": "soft skills: communication, teamwork and managing time",
}

// TipSource generates tips for a topic with the chat model.
type TipSource struct {
	client *Client
	count  int
}

// NewTipSource returns a TipSource asking for DefaultTipCount tips.
func NewTipSource(client *Client) *TipSource {
	return &TipSource{client: client, count: DefaultTipCount}
}

// Tips asks the model for tips on topic.
func (s *TipSource) Tips(ctx context.Context, topic string) ([]string, error) {
	about, ok := topicPrompts[topic]
	if !ok {
		return nil, fmt.Errorf("unknown tip topic %q", topic)
	}
	out, err := s.client.GeneratePrompt(ctx, tipsSystemPrompt,
		fmt.Sprintf("Give %d short tips about %s.", s.count, about))
	if err != nil {
		return nil, fmt.Errorf("generate tips: %w", err)
	}
	tips := parseTips(out, s.count)
	if len(tips) == 0 {
		return nil, fmt.Errorf("generate tips: empty answer")
	}
	return tips, nil
}

// parseTips splits a model answer into at most max lines, dropping list markers.
func parseTips(text string, max int) []string {
	var tips []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(listMarker.ReplaceAllString(strings.TrimSpace(line), ""))
		if line == "" {
			continue
		}
		tips = append(tips, line)
		if len(tips) == max {
			break
		}
	}
	return tips
}
