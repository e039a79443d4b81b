package vault

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const frontmatterFence = "---"

// frontmatter is the YAML block at the top of every vault file. It
// carries what the file system cannot: a stable identity and the
// timestamps a rename or copy would otherwise destroy.
type frontmatter struct {
	ID      string    `yaml:"id"`
	Created time.Time `yaml:"created"`
	Viewed  time.Time `yaml:"viewed,omitempty"`
}

// splitFrontmatter separates a file into its frontmatter and body. A
// file without a frontmatter block is all body; the caller assigns it
// an identity and rewrites it.
func splitFrontmatter(data []byte) (frontmatter, string, error) {
	text := string(data)
	var fm frontmatter
	if !strings.HasPrefix(text, frontmatterFence+"\n") {
		return fm, text, nil
	}
	rest := text[len(frontmatterFence)+1:]
	end := strings.Index(rest, "\n"+frontmatterFence+"\n")
	if end < 0 {
		return fm, text, nil
	}
	if err := yaml.Unmarshal([]byte(rest[:end]), &fm); err != nil {
		return fm, "", fmt.Errorf("vault: bad frontmatter: %w", err)
	}
	return fm, rest[end+len(frontmatterFence)+2:], nil
}

// renderFile serializes frontmatter plus body into file content.
func renderFile(fm frontmatter, body string) ([]byte, error) {
	meta, err := yaml.Marshal(fm)
	if err != nil {
		return nil, fmt.Errorf("vault: marshal frontmatter: %w", err)
	}
	var b strings.Builder
	b.WriteString(frontmatterFence)
	b.WriteByte('\n')
	b.Write(meta)
	b.WriteString(frontmatterFence)
	b.WriteByte('\n')
	b.WriteString(body)
	return []byte(b.String()), nil
}
