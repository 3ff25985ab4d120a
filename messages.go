package selectfield

// Messages holds the display strings a renderer shows around the option list.
// Every string has a built-in default and can be overridden per field.
type Messages struct {
	// Loading is shown while selected labels or a preloaded option set are
	// still being resolved.
	Loading string
	// NoSearchResults is shown when a completed search matched nothing.
	NoSearchResults string
	// Searching is shown while a search is debouncing or in flight.
	Searching string
	// SearchPrompt is shown on a searchable field before the first query.
	SearchPrompt string
	// Placeholder labels the empty selection in single mode.
	Placeholder string
}

// DefaultMessages returns the built-in display strings.
func DefaultMessages() Messages {
	return Messages{
		Loading:         "Loading options...",
		NoSearchResults: "No options match your search.",
		Searching:       "Searching...",
		SearchPrompt:    "Start typing to search...",
		Placeholder:     "Select an option",
	}
}

func (m Messages) withDefaults() Messages {
	defaults := DefaultMessages()
	if m.Loading == "" {
		m.Loading = defaults.Loading
	}
	if m.NoSearchResults == "" {
		m.NoSearchResults = defaults.NoSearchResults
	}
	if m.Searching == "" {
		m.Searching = defaults.Searching
	}
	if m.SearchPrompt == "" {
		m.SearchPrompt = defaults.SearchPrompt
	}
	if m.Placeholder == "" {
		m.Placeholder = defaults.Placeholder
	}
	return m
}
