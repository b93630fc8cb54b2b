package errors

type entry struct {
	category Category
	message  string
	detail   string
}

// Codes are grouped in blocks of twenty per category, starting at N001.
var catalog = map[string]entry{
	"N001": {CategoryTemplate, "Template not found",
		"The page template file does not exist or cannot be read."},
	"N002": {CategoryTemplate, "Template expression failed",
		"A {{ expression }} in the template raised an error when evaluated against the page state."},
	"N003": {CategoryTemplate, "Page script failed",
		"The page script that sets up state raised an error."},
	"N004": {CategoryTemplate, "Invalid HTML",
		"The document could not be parsed as HTML."},

	"N020": {CategoryRender, "Render failed",
		"The page could not be rendered. The live tree keeps its previous state."},
	"N021": {CategoryRender, "Event target not found",
		"The event names an element path that does not exist in the live tree. The client may hold an outdated tree."},
	"N022": {CategoryRender, "Directive failed",
		"A directive could not bind to its element."},

	"N040": {CategoryProtocol, "Invalid message",
		"The live session received a message that is not valid JSON or has an unknown type."},
	"N041": {CategoryProtocol, "WebSocket upgrade failed",
		"The live session could not be established."},

	"N060": {CategoryConfig, "Invalid configuration",
		"The configuration file has invalid or missing values."},
	"N061": {CategoryConfig, "Unsupported configuration format",
		"Configuration files must end in .json, .yaml, .yml or .toml."},
	"N062": {CategoryConfig, "Configuration parse error",
		"The configuration file could not be decoded."},

	"N080": {CategoryIO, "Fetch failed",
		"The input could not be read from its location."},
	"N081": {CategoryIO, "Store failed",
		"The output could not be written to its location."},
	"N082": {CategoryIO, "Unsupported location",
		"Locations must be file paths, http(s) URLs or s3://bucket/key."},

	"N100": {CategoryCLI, "Invalid arguments",
		"The command was called with missing or invalid arguments."},
}
