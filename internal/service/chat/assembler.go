package chat

import (
	"strings"
	"unicode/utf8"

	"zeto/internal/domain"
	"zeto/internal/domain/models"
)

// System instructions for the two chat modes. Grounded mode must answer from
// the supplied documents only and admit when the information is absent;
// ungrounded mode is a general assistant.
const (
	groundedSystemPrompt = "You are an AI assistant for ZETO Workspace, an expert at document analysis. " +
		"Answer only from the provided documents. Cite the document name (and the page or section when possible). " +
		"If the information is not present or insufficient, say so clearly and suggest how it could be found."

	ungroundedSystemPrompt = "You are an AI assistant for ZETO Workspace. " +
		"Answer clearly, helpfully and in a structured way."
)

// ContextDocument is one candidate document for prompt grounding, with its
// extracted text already fetched. Text is nil when the document does not
// exist; WrongProject marks a document that exists but belongs to a project
// other than the one the request is locked to.
type ContextDocument struct {
	ID           string
	Name         string
	MimeType     string
	Text         *string
	WrongProject bool
}

// Limits bounds the assembled payload.
type Limits struct {
	MaxDocs        int
	MaxCharsPerDoc int
}

// Assemble builds the prompt context for one chat request. Pure: all lookups
// have already happened, this only selects, truncates and labels.
//
// Policy: refs keep their caller order and are cut to the first MaxDocs (no
// relevance ranking). A reference without usable text is excluded and
// recorded in Missing rather than failing the request - unless that leaves a
// non-empty refs list with nothing usable, which is a caller error
// (NoUsableContextError, enumerating every exclusion and why).
func Assemble(query string, refs []ContextDocument, limits Limits) (*models.PromptContext, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &domain.EmptyQueryError{}
	}

	if len(refs) > limits.MaxDocs {
		refs = refs[:limits.MaxDocs]
	}

	ctx := &models.PromptContext{
		Query: query,
	}

	for _, ref := range refs {
		switch {
		case ref.WrongProject:
			ctx.Missing = append(ctx.Missing, models.MissingDocument{ID: ref.ID, Reason: models.MissingReasonScopeMismatch})
		case ref.Text == nil:
			ctx.Missing = append(ctx.Missing, models.MissingDocument{ID: ref.ID, Reason: models.MissingReasonAbsent})
		case *ref.Text == "":
			ctx.Missing = append(ctx.Missing, models.MissingDocument{ID: ref.ID, Reason: models.MissingReasonNoText})
		default:
			text := truncate(*ref.Text, limits.MaxCharsPerDoc)
			ctx.Sections = append(ctx.Sections, models.DocumentSection{
				DocumentID: ref.ID,
				Name:       ref.Name,
				MimeType:   ref.MimeType,
				Text:       text,
			})
		}
	}

	// The caller supplied references and expected grounding; nothing usable
	// is bad input, not a transient failure.
	if len(refs) > 0 && len(ctx.Sections) == 0 {
		return nil, &domain.NoUsableContextError{Missing: ctx.Missing}
	}

	if ctx.Grounded() {
		ctx.System = groundedSystemPrompt
	} else {
		ctx.System = ungroundedSystemPrompt
	}

	return ctx, nil
}

// truncate cuts text to at most max bytes without splitting a multi-byte
// rune: a cut landing mid-rune backs up to the preceding rune boundary.
func truncate(text string, max int) string {
	if len(text) <= max {
		return text
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}
