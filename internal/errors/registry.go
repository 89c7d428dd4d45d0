package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Validation Errors (C100-C199)
	// ============================================

	"C101": {
		Category: CategoryValidation,
		Message:  "Field failed validation",
	},
	"C102": {
		Category: CategoryValidation,
		Message:  "Unknown validation rule",
		Detail:   "The rule name is not one of required, min, max, pattern, email, url, phone, numeric, eq, checked.",
	},
	"C103": {
		Category: CategoryValidation,
		Message:  "Invalid rule argument",
	},
	"C110": {
		Category: CategoryValidation,
		Message:  "Selected file rejected",
	},

	// ============================================
	// Transport Errors (C200-C299)
	// ============================================

	"C201": {
		Category: CategoryTransport,
		Message:  "Request failed",
		Detail:   "The request never completed.",
	},
	"C202": {
		Category: CategoryTransport,
		Message:  "Server rejected the submission",
	},
	"C203": {
		Category: CategoryTransport,
		Message:  "Submission already in progress",
	},

	// ============================================
	// DOM Errors (C300-C399)
	// ============================================

	"C301": {
		Category: CategoryDOM,
		Message:  "Unknown field",
	},
	"C302": {
		Category: CategoryDOM,
		Message:  "Unknown section",
	},
	"C303": {
		Category: CategoryDOM,
		Message:  "Unknown input group",
	},
	"C304": {
		Category: CategoryDOM,
		Message:  "Section is not active",
		Detail:   "Inputs inside a hidden section cannot be selected.",
	},
	"C305": {
		Category: CategoryDOM,
		Message:  "Unknown notification",
	},
	"C306": {
		Category: CategoryDOM,
		Message:  "Unknown event",
	},
	"C307": {
		Category: CategoryDOM,
		Message:  "Confirmation required",
		Detail:   "The action asks for confirmation and the event did not carry it.",
	},

	// ============================================
	// Config Errors (C400-C499)
	// ============================================

	"C401": {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
	},
	"C402": {
		Category: CategoryConfig,
		Message:  "Configuration file not found",
	},
	"C410": {
		Category: CategoryConfig,
		Message:  "Invalid page catalogue",
	},
	"C411": {
		Category: CategoryConfig,
		Message:  "Unknown page",
	},

	// ============================================
	// CLI Errors (C500-C599)
	// ============================================

	"C501": {
		Category: CategoryCLI,
		Message:  "Invalid argument",
	},
}

// Register adds or replaces an error template.
// Intended for tests and embedding applications that extend the code space.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}

// Lookup returns the template registered for code.
func Lookup(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
