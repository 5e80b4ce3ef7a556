package types

// RawItem is one content unit extracted from a page, in the source language.
type RawItem struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	Link        string `json:"link,omitempty"`
}

// HasImage reports whether the item references an image.
func (i RawItem) HasImage() bool {
	return i.ImageURL != ""
}

// TranslatedTitle is a title in the analysis language, attributed to the
// session and item it came from.
//
// When translation failed, Text holds the fallback-marked original and
// Fallback is true.
type TranslatedTitle struct {
	Session string `json:"session"`
	// Index is the zero-based position of the item among the extracted items.
	Index    int    `json:"index"`
	Original string `json:"original"`
	Text     string `json:"text"`
	Fallback bool   `json:"fallback,omitempty"`
}

// Title creates an unattributed translated title. Used when analysing plain
// strings that did not come from a session.
func Title(text string) TranslatedTitle {
	return TranslatedTitle{Text: text, Original: text}
}

// ItemResult is the per-item record kept for reporting.
type ItemResult struct {
	Index      int             `json:"index"`
	Item       RawItem         `json:"item"`
	Translated TranslatedTitle `json:"translated"`

	// ImagePath is where the image was stored, empty if not stored.
	ImagePath string `json:"image_path,omitempty"`

	// ImageError explains why the image was not stored.
	ImageError string `json:"image_error,omitempty"`
}
