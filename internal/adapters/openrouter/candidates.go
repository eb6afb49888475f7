package openrouter

// NextCandidate returns the next model to attempt: the first entry of
// candidates that has not been tried yet. Duplicate entries (a fallback
// identical to the primary) are naturally skipped because the first
// occurrence marks the model as tried.
func NextCandidate(tried, candidates []string) (string, bool) {
	seen := make(map[string]struct{}, len(tried))
	for _, m := range tried {
		seen[m] = struct{}{}
	}
	for _, m := range candidates {
		if _, ok := seen[m]; !ok {
			return m, true
		}
	}
	return "", false
}
