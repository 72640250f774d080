package langs

// TypeScriptSymbolPatterns extends the JavaScript bundle with TypeScript's
// interface, type-alias and enum declarations. Shared by the "typescript"
// and "tsx" bundles, which differ only in grammar.
const TypeScriptSymbolPatterns = `
(function_declaration
  name: (identifier) @function.name) @function.definition

(class_declaration
  name: (type_identifier) @class.name) @class.definition

(method_definition
  name: (property_identifier) @method.name) @method.definition

(public_field_definition
  name: (property_identifier) @property.name) @property.definition

(interface_declaration
  name: (type_identifier) @interface.name) @interface.definition

(type_alias_declaration
  name: (type_identifier) @type-alias.name) @type-alias.definition

(enum_declaration
  name: (identifier) @enum.name) @enum.definition

(variable_declarator
  name: (identifier) @variable.name) @variable.definition
`

// TypeScriptReferencePatterns captures call-site and import usage.
const TypeScriptReferencePatterns = `
(call_expression
  function: (identifier) @reference.name) @reference.usage

(call_expression
  function: (member_expression
    property: (property_identifier) @reference.name)) @reference.usage

(import_statement
  source: (string) @reference.name) @reference.usage
`
