package domain

// Step identifiers produced by the guided builder. The external runtime and the
// reverse mapper both depend on these exact names.
const (
	StepGreeting = "greeting"
	StepMainMenu = "main_menu"
	StepGoodbye  = "goodbye"

	// ReplyStepPrefix prefixes the per-option reply steps (opt_1, opt_2, ...).
	ReplyStepPrefix = "opt_"
)

// FlowVersion is stamped on documents produced by the guided builder.
const FlowVersion = "1.0"

// CompanyNamePlaceholder is substituted by the runtime with the record's company_name.
const CompanyNamePlaceholder = "{{company_name}}"

// Default texts applied when the operator leaves a field blank.
const (
	DefaultGreetingMessage = "Olá! 👋 Seja bem-vindo(a)! Como podemos ajudar você hoje?"
	DefaultMenuMessage     = "📋 *Menu Principal*\n\nEscolha uma das opções abaixo digitando o número correspondente:"
	DefaultReplyMessage    = "Obrigado pelo seu contato! Em breve um atendente retornará."
	DefaultGoodbyeMessage  = "Obrigado por entrar em contato com " + CompanyNamePlaceholder + "! Até logo! 👋"

	// OptionPlaceholderFormat receives the 1-based option position.
	OptionPlaceholderFormat = "Opção %d"

	BackToMenuText      = "Voltar ao menu principal"
	EndConversationText = "Encerrar atendimento"
)

// Defaults for the fields stored beside flow_config.
const (
	DefaultFallbackMessage = "Desculpe, não entendi sua resposta. Por favor, digite o número de uma das opções do menu."
	DefaultMaxAttempts     = 3
)
