package langs

// JavaSymbolPatterns captures classes, interfaces, methods, constructors
// and fields.
const JavaSymbolPatterns = `
(class_declaration
  name: (identifier) @class.name) @class.definition

(interface_declaration
  name: (identifier) @interface.name) @interface.definition

(enum_declaration
  name: (identifier) @enum.name) @enum.definition

(method_declaration
  name: (identifier) @method.name) @method.definition

(constructor_declaration
  name: (identifier) @constructor.name) @constructor.definition

(field_declaration
  declarator: (variable_declarator
    name: (identifier) @field.name)) @field.definition
`

// JavaReferencePatterns captures method-call and import usage.
const JavaReferencePatterns = `
(method_invocation
  name: (identifier) @reference.name) @reference.usage

(import_declaration
  (scoped_identifier) @reference.name) @reference.usage
`
