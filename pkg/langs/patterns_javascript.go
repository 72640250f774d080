package langs

// JavaScriptSymbolPatterns follows the capture convention established by
// the teacher's symbol pattern bundles: `@kind.name` tags the identifier,
// `@kind.definition` tags the enclosing declaration node.
const JavaScriptSymbolPatterns = `
(function_declaration
  name: (identifier) @function.name) @function.definition

(class_declaration
  name: (identifier) @class.name) @class.definition

(method_definition
  name: (property_identifier) @method.name) @method.definition

(variable_declarator
  name: (identifier) @variable.name) @variable.definition
`

// JavaScriptReferencePatterns captures call-site and import usage.
const JavaScriptReferencePatterns = `
(call_expression
  function: (identifier) @reference.name) @reference.usage

(call_expression
  function: (member_expression
    property: (property_identifier) @reference.name)) @reference.usage

(import_statement
  source: (string) @reference.name) @reference.usage
`
