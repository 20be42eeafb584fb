// Package gen wraps the unary Gemini APIs used alongside a voice
// session: one-shot text generation (optionally grounded on an image)
// and image generation.
package gen
