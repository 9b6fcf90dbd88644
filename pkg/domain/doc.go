/*
Package domain contains the core models shared by every chatflow component.

It defines the portable conversation graph consumed by the external WhatsApp
runtime, the transient authoring form used by the guided builder, and the
persisted chatbot, session and log records. The package is kept free of I/O.

# Key Entities

  - FlowDocument: the step graph stored as a chatbot's flow_config.
  - Step: a greeting (auto-advance), menu (await a numbered reply) or end (terminal) node.
  - Option: a numbered transition out of a menu step.
  - AuthoringForm: the flat greeting/menu/options form edited by operators.
  - Chatbot: the persisted record holding the document and its sibling settings.
  - Session, SessionLog: read-only conversation records written by the runtime.

Unknown fields on documents, steps and options are kept in Extra side-bags and
written back unchanged.
*/
package domain
