// Package compiler converts between the guided authoring form and FlowDocuments.
//
// BuildFlowFromMenu compiles a form into a ready-to-run document, DeriveMenuOptionsFromFlow
// projects a stored document back onto the form for re-editing, and Parse decodes
// operator-supplied document text for the raw editor path.
//
// The builder and the reverse mapper are deliberately not inverses: the builder fills
// defaults and appends fixed navigation, and the reverse mapper only reads what the
// form can show.
package compiler
