package record

// CollectHeaders returns every field name that appears in rs, each exactly
// once, in first-seen order: records are scanned in order and each record's
// own keys in insertion order. The result is never nil.
func CollectHeaders(rs RecordSet) []string {
	headers := make([]string, 0)
	seen := make(map[string]struct{})
	for _, r := range rs {
		for _, k := range r.keys {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			headers = append(headers, k)
		}
	}
	return headers
}
