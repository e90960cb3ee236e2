package extract

// Bounds on a single extraction. Hard truncation limits, not sampling: they
// cap chunk size and downstream embedding cost.
const (
	maxInteractive     = 50
	maxForms           = 10
	maxContentSections = 20
	maxPopups          = 10
	maxPopupButtons    = 20

	labelCap     = 100
	previewCap   = 200
	closeTextCap = 50
	classSigCap  = 100
)

// SemanticRecord is the structured result of one page extraction.
// All lists preserve document order and are bounded.
type SemanticRecord struct {
	Title           string              `json:"title"`
	Interactive     []Interactive       `json:"interactive_elements"`
	Forms           []FormDescriptor    `json:"forms"`
	ContentSections []ContentSection    `json:"content_sections"`
	Popups          []PopupInfo         `json:"popups"`
	PopupButtons    []PopupActionButton `json:"popup_buttons"`
}

// Interactive is a button-like, input-like or link element with a
// best-effort unique selector.
type Interactive struct {
	Type     string `json:"type"`
	Label    string `json:"label"`
	Selector string `json:"selector"`
	Href     string `json:"href,omitempty"`
}

// FormDescriptor describes a form node and its fields.
type FormDescriptor struct {
	ID         string      `json:"id"`
	Fields     []FormField `json:"fields"`
	FieldCount int         `json:"field_count"`
}

// FormField is one input/textarea/select descendant of a form.
type FormField struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// ContentSection is a class-bearing section/article/div with a text preview.
type ContentSection struct {
	Type    string `json:"type"`
	Class   string `json:"class"`
	Preview string `json:"preview"`
}

// PopupInfo is a classified overlay candidate.
type PopupInfo struct {
	// Type is one of: cookie_consent, auth_modal, newsletter, banner,
	// age_verification, modal_dialog, unknown.
	Type        string         `json:"type"`
	Role        string         `json:"role"`
	Class       string         `json:"class"`
	ID          string         `json:"id"`
	CloseButton *DismissControl `json:"close_button"`
}

// DismissControl is the element that closes a detected popup.
type DismissControl struct {
	Selector  string `json:"selector"`
	Text      string `json:"text"`
	AriaLabel string `json:"aria_label"`
	Tag       string `json:"tag"`
}

// PopupActionButton is any button/anchor whose text or accessible label
// matches a dismissal phrase, wherever it sits in the document.
type PopupActionButton struct {
	Text      string `json:"text"`
	Selector  string `json:"selector"`
	AriaLabel string `json:"aria_label"`
	Tag       string `json:"tag"`
}
