package tone

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
	"github.com/microcosm-cc/bluemonday"
)

const (
	minSnippetLen = 6
	maxSnippetLen = 240
)

var sentenceEnd = regexp.MustCompile(`[.!?]["')\]]?\s+`)

// Harvester pulls voice samples out of published brand copy, such as a blog
// post or newsletter archive page.
type Harvester struct {
	Client    *http.Client
	UserAgent string
}

func NewHarvester() *Harvester {
	return &Harvester{
		Client: &http.Client{
			Timeout: 30 * time.Second,
		},
		UserAgent: "Mozilla/5.0 (compatible; campaigner-tone/1.0)",
	}
}

// FromURL fetches rawURL, extracts the main article text and returns each
// usable sentence as a general-purpose snippet.
func (h *Harvester) FromURL(ctx context.Context, rawURL string) ([]Snippet, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", h.UserAgent)

	resp, err := h.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch URL: status code %d", resp.StatusCode)
	}

	article, err := readability.FromReader(resp.Body, parsedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse article: %w", err)
	}

	return Sentences(article.TextContent, parsedURL.Host), nil
}

// Sentences sanitizes text and splits it into snippet-sized sentences.
// source is folded into each snippet ID.
func Sentences(text, source string) []Snippet {
	// strip any markup readability left behind
	clean := html.UnescapeString(bluemonday.StrictPolicy().Sanitize(text))
	clean = strings.Join(strings.Fields(clean), " ")

	var out []Snippet
	seen := make(map[string]bool)
	for _, sentence := range splitSentences(clean) {
		n := len([]rune(sentence))
		if n < minSnippetLen || n > maxSnippetLen || seen[sentence] {
			continue
		}
		seen[sentence] = true
		out = append(out, Snippet{
			ID:        snippetID(source, sentence),
			Text:      sentence,
			Audiences: []string{General},
			Purposes:  []string{General},
		})
	}
	return out
}

func splitSentences(text string) []string {
	var out []string
	last := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(text, -1) {
		out = append(out, strings.TrimSpace(text[last:loc[1]]))
		last = loc[1]
	}
	if rest := strings.TrimSpace(text[last:]); rest != "" {
		out = append(out, rest)
	}
	return out
}

func snippetID(source, text string) string {
	sum := sha1.Sum([]byte(text))
	return fmt.Sprintf("%s-%s", source, hex.EncodeToString(sum[:])[:10])
}
