/*
Package dsl provides a fluent Go builder for FlowDocuments.

It is used by the guided builder to assemble the greeting → menu → reply shape, and
by tests and tooling that need hand-made documents without writing JSON.

Example usage:

	doc := dsl.New().
		Version("1.0").
		Start("greeting").
		Add("greeting").Greeting("Olá!").Go("main_menu").Done().
		Add("main_menu").Menu("Escolha:").
			Option("Ver preços", "opt_1").
			Done().
		Add("opt_1").End("Tabela enviada.").Done().
		Build()
*/
package dsl
