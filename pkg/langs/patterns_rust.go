package langs

// RustSymbolPatterns captures functions, structs, enums, traits, consts,
// statics and modules.
const RustSymbolPatterns = `
(function_item
  name: (identifier) @function.name) @function.definition

(struct_item
  name: (type_identifier) @struct.name) @struct.definition

(enum_item
  name: (type_identifier) @enum.name) @enum.definition

(trait_item
  name: (type_identifier) @interface.name) @interface.definition

(const_item
  name: (identifier) @constant.name) @constant.definition

(static_item
  name: (identifier) @static.name) @static.definition

(mod_item
  name: (identifier) @module.name) @module.definition
`

// RustReferencePatterns captures call-site and use-declaration usage.
const RustReferencePatterns = `
(call_expression
  function: (identifier) @reference.name) @reference.usage

(call_expression
  function: (field_expression
    field: (field_identifier) @reference.name)) @reference.usage

(use_declaration
  argument: (_) @reference.name) @reference.usage
`
