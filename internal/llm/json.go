package llm

import "strings"

// ExtractJSONObject returns the first top-level JSON object embedded in
// content. LLM responses frequently wrap JSON in markdown fences or prose;
// this strips everything outside the outermost braces. Returns the input
// unchanged when no braces are found.
func ExtractJSONObject(content string) string {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end < start {
		return content
	}
	return content[start : end+1]
}

// ExtractJSONArray returns the first top-level JSON array embedded in content,
// with the same fallback behavior as ExtractJSONObject.
func ExtractJSONArray(content string) string {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start < 0 || end < start {
		return content
	}
	return content[start : end+1]
}
