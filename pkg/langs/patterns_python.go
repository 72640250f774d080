package langs

// PythonSymbolPatterns captures function, class, and assignment
// definitions; assignments match at any nesting depth, not only at
// module level.
const PythonSymbolPatterns = `
(function_definition
  name: (identifier) @function.name) @function.definition

(class_definition
  name: (identifier) @class.name) @class.definition

(assignment
  left: (identifier) @variable.name) @variable.definition
`

// PythonReferencePatterns captures call and import usage sites.
const PythonReferencePatterns = `
(call
  function: (identifier) @reference.name) @reference.usage

(call
  function: (attribute
    attribute: (identifier) @reference.name)) @reference.usage

(import_from_statement
  module_name: (dotted_name) @reference.name) @reference.usage
`
