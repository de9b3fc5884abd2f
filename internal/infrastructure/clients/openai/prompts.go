package openai

// ImagePromptSuffix keeps generated images free of text overlays
const ImagePromptSuffix = " Photorealistic editorial photograph, neutral background, no text, no watermark."
