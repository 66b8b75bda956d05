// Package composer renders a release registry into text blocks that fit a message size limit.
package composer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/samber/lo"
	"github.com/samgozman/release-thread/registry"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TelegramLimit is the default block size. Telegram accepts up to 4096 characters per message,
// the margin is left for the channel signature.
const TelegramLimit = 3500

// NoReleases is the digest sent when a run found neither releases nor diagnostics.
const NoReleases = "No new releases found this week"

// Compose renders the releases of reg sorted by band, one "Band — Album" line each, and packs
// the lines into blocks of at most bound runes. A line never gets split: a single line longer
// than bound makes a block of its own. A non-positive bound yields one block.
// An empty registry yields no blocks.
func Compose(reg *registry.Registry, bound int) []string {
	bands := reg.Bands()
	if len(bands) == 0 {
		return nil
	}

	// A Caser is not safe for concurrent use.
	caser := cases.Title(language.English)

	var (
		blocks []string
		block  strings.Builder
		size   int
	)
	for _, band := range bands {
		album, _ := reg.Album(band)
		line := fmt.Sprintf("%s — %s\n", caser.String(band), caser.String(album))
		n := utf8.RuneCountInString(line)

		if bound > 0 && size > 0 && size+n > bound {
			blocks = append(blocks, block.String())
			block.Reset()
			size = 0
		}
		block.WriteString(line)
		size += n
	}

	return append(blocks, block.String())
}

// Digest builds the full weekly digest: the registry message first (split on line boundaries
// when it doesn't fit into bound), then the Compose blocks.
func Digest(reg *registry.Registry, bound int) []string {
	blocks := append(splitLines(reg.Message(), bound), Compose(reg, bound)...)
	if len(blocks) == 0 {
		return []string{NoReleases}
	}
	return blocks
}

// splitLines packs the lines of text into blocks of at most bound runes.
// Lines longer than bound are cut.
func splitLines(text string, bound int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if bound <= 0 || utf8.RuneCountInString(text) <= bound {
		return []string{text}
	}

	var (
		blocks []string
		lines  []string
		size   int
	)
	flush := func() {
		if len(lines) > 0 {
			blocks = append(blocks, strings.Join(lines, "\n"))
		}
		lines, size = nil, 0
	}

	for _, line := range strings.Split(text, "\n") {
		for _, part := range lo.ChunkString(line, bound) {
			n := utf8.RuneCountInString(part)
			if len(lines) > 0 {
				n++ // separator
			}
			if size+n > bound {
				flush()
				n = utf8.RuneCountInString(part)
			}
			lines = append(lines, part)
			size += n
		}
	}
	flush()

	return blocks
}
