package convo

import "strings"

// emojiRanges covers the Unicode blocks stripped from user input before
// extraction and prompting: emoticons, pictographs, transport symbols,
// flags, dingbats, and the supplementary planes.
var emojiRanges = [][2]rune{
	{0x1F300, 0x1F5FF},
	{0x1F600, 0x1F64F},
	{0x1F680, 0x1F6FF},
	{0x1F900, 0x1F9FF},
	{0x1FA70, 0x1FAFF},
	{0x1F1E0, 0x1F1FF},
	{0x2600, 0x27BF},
	{0x2B00, 0x2BFF},
	{0xFE00, 0xFE0F},
	{0x200D, 0x200D},
}

// sanitizeText strips emoji and normalizes whitespace so keyword matching
// and completion prompts see clean text.
func sanitizeText(text string) string {
	cleaned := strings.Map(func(r rune) rune {
		for _, rg := range emojiRanges {
			if r >= rg[0] && r <= rg[1] {
				return -1
			}
		}
		return r
	}, text)
	return strings.Join(strings.Fields(cleaned), " ")
}
