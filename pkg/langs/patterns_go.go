package langs

// GoSymbolPatterns captures top-level and method-level Go definitions.
const GoSymbolPatterns = `
(function_declaration
  name: (identifier) @function.name) @function.definition

(method_declaration
  name: (field_identifier) @method.name) @method.definition

(type_spec
  name: (type_identifier) @struct.name
  type: (struct_type)) @struct.definition

(type_spec
  name: (type_identifier) @interface.name
  type: (interface_type)) @interface.definition

(type_spec
  name: (type_identifier) @type-alias.name
  type: (_)) @type-alias.definition

(const_spec
  name: (identifier) @constant.name) @constant.definition

(var_spec
  name: (identifier) @variable.name) @variable.definition
`

// GoReferencePatterns captures identifier and selector usage sites.
const GoReferencePatterns = `
(call_expression
  function: (identifier) @reference.name) @reference.usage

(call_expression
  function: (selector_expression
    field: (field_identifier) @reference.name)) @reference.usage

(import_spec
  path: (interpreted_string_literal) @reference.name) @reference.usage
`
