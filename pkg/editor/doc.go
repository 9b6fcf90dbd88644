/*
Package editor implements the two authoring paths of a chatbot.

In guided mode the operator fills an AuthoringForm and the editor compiles it
with compiler.BuildFlowFromMenu. In raw mode the operator supplies the document
text, which is parsed, validated and stored exactly as given. The modes are
exclusive per save: the representation not used is left stale.

Every save validates before writing. A rejected save never touches the stored record.

	ed := editor.New(store, editor.WithLogger(logger))
	bot, err := ed.Save(ctx, editor.SaveRequest{
		TenantID: "acme",
		Mode:     domain.EditModeGuided,
		Form:     form,
	})
*/
package editor
