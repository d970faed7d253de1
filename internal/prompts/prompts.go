// Package prompts holds the fixed model instructions as exported constants,
// one per upstream call.
package prompts

// DescribeImage is sent with every upload so stored images carry a rich
// textual description for later prompt synthesis.
const DescribeImage = `Describe this photo in detail for later creative editing.
Cover the subject, setting, lighting, dominant colors, composition, and overall
mood. Mention anything distinctive about the scene. Respond with plain prose,
no lists, at most 150 words.`

// SearchAesthetic instructs the web-search-capable model to sum up a song's
// visual identity. The final sentence fixes the negative-result phrasing that
// aesthetic.IsNegativeResult matches against.
const SearchAesthetic = `Search the web for the visual aesthetic associated with
the given song and artist. Describe the colors, mood, album artwork, music video
imagery, and overall visual style in about 150 words of plain prose. Focus on
concrete visual detail an image editor could act on. If you cannot find any
visual information about the song or artist, respond exactly with:
"No visual data found".`

// SynthesizeEdit turns an aesthetic description plus photo context into a
// single edit instruction for the image-generation model.
const SynthesizeEdit = `You write edit instructions for an image editing model.
Given a visual aesthetic and context about a photo, produce one concise
instruction that restyles the photo to match the aesthetic: color grading,
lighting, atmosphere, and texture. Preserve the photo's subject and
composition. Respond with the instruction only, no preamble.`
