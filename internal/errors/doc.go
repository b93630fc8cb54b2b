// Package errors provides structured, actionable errors for the nimble CLI
// and server.
//
// # Error Categories
//
// Errors are organized into categories:
//   - template: template files that cannot be read, parsed or evaluated
//   - render: failures while rendering or dispatching on a live page
//   - protocol: malformed live session messages
//   - config: invalid configuration files
//   - io: inputs and outputs that cannot be fetched or stored
//   - cli: command usage errors
//
// # Error Codes
//
// Each code (e.g. "N002") maps to a category, a short message and a longer
// explanation, and links to a page under the documentation site.
//
// # Usage
//
//	err := errors.New("N002").
//	    At("pages/home.html", 12, 5).
//	    WithHint("Close the {{ expression }} with }}").
//	    Wrap(cause)
//
//	errors.Print(os.Stderr, err)
//
// An *Error is also a json.Marshaler, so slog's JSON handler logs it as an
// object rather than a string.
package errors
