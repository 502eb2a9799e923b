package mode

// Mode is the retrieval strategy selected for a list/search request.
type Mode string

// Search mode constants.
const (
	// List orders the relational set by a sort column; no index is consulted.
	List Mode = "list"
	// Keyword ranks by the trigram full-text index.
	Keyword Mode = "keyword"
	// Semantic ranks by embedding distance.
	Semantic Mode = "semantic"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == List || m == Keyword || m == Semantic
}

// Ranked reports whether results come from an external ranking and need a rank-preserving merge.
func (m Mode) Ranked() bool {
	return m == Keyword || m == Semantic
}
