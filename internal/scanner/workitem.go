package scanner

// WorkItem is one (base URL, path) pair to probe.
type WorkItem struct {
	BaseURL string
	Path    string
}

// FullURL returns the URL actually requested. The two parts are joined
// verbatim; no escaping or slash normalization is applied.
func (w WorkItem) FullURL() string {
	return w.BaseURL + w.Path
}

// Batch is every WorkItem sharing one path.
type Batch struct {
	Path  string
	Items []WorkItem
}

// BatchItems pairs path with each URL in list order.
func BatchItems(urls []string, path string) []WorkItem {
	items := make([]WorkItem, 0, len(urls))
	for _, u := range urls {
		items = append(items, WorkItem{BaseURL: u, Path: path})
	}
	return items
}

// Plan returns one batch per path, in path order. Either list being empty
// yields no work.
func Plan(urls, paths []string) []Batch {
	if len(urls) == 0 {
		return nil
	}
	batches := make([]Batch, 0, len(paths))
	for _, p := range paths {
		batches = append(batches, Batch{Path: p, Items: BatchItems(urls, p)})
	}
	return batches
}
