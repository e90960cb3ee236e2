package extract

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// popupIndicators is the class/id vocabulary marking overlay candidates.
var popupIndicators = []string{
	"modal", "popup", "dialog", "overlay", "banner",
	"cookie", "consent", "newsletter", "announcement",
	"auth", "login", "signup", "age-gate",
}

// actionPhrases match buttons that accept or dismiss overlays. Matched
// against lowered text and accessible labels anywhere in the document,
// since dismiss controls often live outside a recognizable modal wrapper.
var actionPhrases = []string{
	"reject", "accept", "close", "dismiss", "no thanks",
	"skip", "not now", "continue", "agree",
}

// detectPopups scans the document for overlay candidates and classifies
// them, and independently collects popup action buttons.
func detectPopups(doc *html.Node) ([]PopupInfo, []PopupActionButton) {
	var popups []PopupInfo
	var buttons []PopupActionButton

	walk(doc, func(n *html.Node) {
		switch n.DataAtom {
		case atom.Div, atom.Aside, atom.Section:
			if p, ok := classifyPopup(n); ok && len(popups) < maxPopups {
				popups = append(popups, p)
			}
		case atom.Button, atom.A:
			if b, ok := actionButton(n); ok && len(buttons) < maxPopupButtons {
				buttons = append(buttons, b)
			}
		}
	})

	return popups, buttons
}

func classifyPopup(n *html.Node) (PopupInfo, bool) {
	class := strings.ToLower(attrOr(n, "class", ""))
	id := strings.ToLower(attrOr(n, "id", ""))
	role := strings.ToLower(attrOr(n, "role", ""))
	ariaModal := attrOr(n, "aria-modal", "")

	isPopup := role == "dialog" || role == "alertdialog" || role == "banner" ||
		ariaModal == "true" ||
		containsAny(class, popupIndicators) ||
		containsAny(id, popupIndicators)
	if !isPopup {
		return PopupInfo{}, false
	}

	// First match wins: specific taxonomies before the generic
	// modal-dialog fallback.
	popupType := "unknown"
	switch {
	case strings.Contains(class, "cookie") || strings.Contains(class, "consent"):
		popupType = "cookie_consent"
	case strings.Contains(class, "login") || strings.Contains(class, "auth") || strings.Contains(class, "signup"):
		popupType = "auth_modal"
	case strings.Contains(class, "newsletter") || strings.Contains(class, "subscribe"):
		popupType = "newsletter"
	case strings.Contains(class, "banner") || strings.Contains(class, "announcement"):
		popupType = "banner"
	case strings.Contains(class, "age"):
		popupType = "age_verification"
	case role == "dialog" || ariaModal != "":
		popupType = "modal_dialog"
	}

	return PopupInfo{
		Type:        popupType,
		Role:        role,
		Class:       truncate(class, classSigCap),
		ID:          id,
		CloseButton: findCloseButton(n),
	}, true
}

// findCloseButton looks for a descendant button/anchor whose accessible
// label, or failing that title, mentions "close".
func findCloseButton(n *html.Node) *DismissControl {
	btn := findButtonByAttr(n, "aria-label")
	if btn == nil {
		btn = findButtonByAttr(n, "title")
	}
	if btn == nil {
		return nil
	}

	var selector string
	if id, ok := attrVal(btn, "id"); ok && id != "" {
		selector = "#" + id
	} else if class := firstClassToken(btn); class != "" {
		selector = "." + class
	} else if aria, ok := attrVal(btn, "aria-label"); ok {
		selector = "[aria-label='" + aria + "']"
	}

	return &DismissControl{
		Selector:  selector,
		Text:      truncate(collectText(btn), closeTextCap),
		AriaLabel: attrOr(btn, "aria-label", ""),
		Tag:       btn.Data,
	}
}

func findButtonByAttr(root *html.Node, key string) *html.Node {
	var found *html.Node
	walk(root, func(n *html.Node) {
		if found != nil {
			return
		}
		if n.DataAtom != atom.Button && n.DataAtom != atom.A {
			return
		}
		if v, ok := attrVal(n, key); ok && strings.Contains(strings.ToLower(v), "close") {
			found = n
		}
	})
	return found
}

func actionButton(n *html.Node) (PopupActionButton, bool) {
	text := strings.ToLower(collectText(n))
	aria := strings.ToLower(attrOr(n, "aria-label", ""))

	matched := false
	for _, phrase := range actionPhrases {
		if strings.Contains(text, phrase) || strings.Contains(aria, phrase) {
			matched = true
			break
		}
	}
	if !matched {
		return PopupActionButton{}, false
	}

	var selector string
	if id, ok := attrVal(n, "id"); ok && id != "" {
		selector = "#" + id
	} else if class := firstClassToken(n); class != "" {
		selector = "." + class
	}

	return PopupActionButton{
		Text:      truncate(text, closeTextCap),
		Selector:  selector,
		AriaLabel: attrOr(n, "aria-label", ""),
		Tag:       n.Data,
	}, true
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
