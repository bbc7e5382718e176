package retrieval

// DocumentIDFrom digs a new document's ID out of a creation response.
// The service has emitted both flat and nested shapes.
func DocumentIDFrom(data map[string]any) string {
	if id := firstString(data, "id", "document_id"); id != "" {
		return id
	}
	if nested, ok := data["results"].(map[string]any); ok {
		return firstString(nested, "id", "document_id")
	}
	return ""
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
