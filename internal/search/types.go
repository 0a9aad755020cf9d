package search

// EntryDoc is the searchable view of one index entry.
type EntryDoc struct {
	ID       string
	Composer string
	Title    string
	Release  string
	Split    string
	// FileKeys lists the entry's file roles ("midi audio").
	FileKeys string
}

// SearchResult represents one matched entry.
type SearchResult struct {
	Entry EntryDoc
	Score float64
	Why   string
}
